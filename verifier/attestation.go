package verifier

import (
	"github.com/myaccount-club/beacon-chain/bls"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/types"
)

// AttestationVerifier checks attestations against the state they are being
// included into.
type AttestationVerifier struct {
	spec *helpers.SpecHelpers
}

// NewAttestationVerifier builds the verifier.
func NewAttestationVerifier(spec *helpers.SpecHelpers) *AttestationVerifier {
	return &AttestationVerifier{spec: spec}
}

// Verify applies the phase-0 attestation rules.
func (v *AttestationVerifier) Verify(attestation types.Attestation, state *types.BeaconState) VerificationResult {
	data := attestation.Data
	cfg := v.spec.Spec()

	if uint64(data.Slot) < cfg.GenesisSlot {
		return Failed("attestation slot %d is less than GENESIS_SLOT %d", data.Slot, cfg.GenesisSlot)
	}
	if uint64(data.Shard) >= cfg.ShardCount && uint64(data.Shard) != cfg.BeaconChainShardNumber {
		return Failed("attestation shard %d is out of range", data.Shard)
	}

	// Inclusion window:
	//   data.slot + MIN_ATTESTATION_INCLUSION_DELAY <= state.slot
	//     < data.slot + SLOTS_PER_EPOCH
	minInclusion := data.Slot + types.Slot(cfg.MinAttestationInclusionDelay)
	if state.Slot < minInclusion {
		return Failed("inclusion slot starts from %d but got %d", minInclusion, state.Slot)
	}
	if state.Slot >= data.Slot+types.Slot(cfg.SlotsPerEpoch) {
		return Failed("attestation for slot %d is stale at slot %d", data.Slot, state.Slot)
	}

	// The justified epoch named by the attestation must match the state's
	// view for the attestation's epoch.
	expectedJustified := state.PreviousJustifiedEpoch
	if v.spec.SlotToEpoch(data.Slot+1) >= v.spec.CurrentEpoch(state) {
		expectedJustified = state.JustifiedEpoch
	}
	if data.JustifiedEpoch != expectedJustified {
		return Failed("attestation justified epoch %d does not match expected %d", data.JustifiedEpoch, expectedJustified)
	}

	justifiedRoot, err := v.spec.BlockRoot(state, v.spec.EpochStartSlot(data.JustifiedEpoch))
	if err != nil {
		return Failed("could not resolve justified block root: %v", err)
	}
	if data.JustifiedBlockRoot != justifiedRoot {
		return Failed("justified_block_root=%s does not match block_root=%s", data.JustifiedBlockRoot, justifiedRoot)
	}

	// Crosslink continuity: the named crosslink is either the state's
	// latest for the shard, or the state's latest is the one this
	// attestation would create.
	if uint64(data.Shard) != cfg.BeaconChainShardNumber {
		latest := state.LatestCrosslinks[data.Shard]
		candidate := types.Crosslink{
			Epoch:             v.spec.SlotToEpoch(data.Slot),
			CrosslinkDataRoot: data.CrosslinkDataRoot,
		}
		if latest != data.LatestCrosslink && latest != candidate {
			return Failed("attestation latest_crosslink is incorrect for shard %d", data.Shard)
		}
	}

	// Phase 0: custody stays zero, aggregation must select someone, the
	// shard data root stays zero.
	if !attestation.CustodyBitfield.IsZero() {
		return Failed("custody_bitfield must be zero in phase 0")
	}
	if attestation.AggregationBitfield.IsZero() {
		return Failed("aggregation_bitfield is empty")
	}
	if !data.CrosslinkDataRoot.IsZero() {
		return Failed("crosslink_data_root must be zero in phase 0")
	}

	committee, err := v.spec.CommitteeAtShard(state, data.Slot, data.Shard)
	if err != nil {
		return Failed("crosslink committee not found: %v", err)
	}
	if !helpers.VerifyBitfield(attestation.AggregationBitfield, len(committee)) {
		return Failed("aggregation_bitfield of %d bytes does not fit committee of %d", len(attestation.AggregationBitfield), len(committee))
	}
	if len(attestation.CustodyBitfield) != len(attestation.AggregationBitfield) {
		return Failed("custody_bitfield length %d does not match aggregation_bitfield length %d",
			len(attestation.CustodyBitfield), len(attestation.AggregationBitfield))
	}
	for i := range committee {
		if !attestation.AggregationBitfield.BitAt(i) && attestation.CustodyBitfield.BitAt(i) {
			return Failed("custody bit set for non-participant committee index %d", i)
		}
	}

	if v.spec.BLSVerificationEnabled() {
		if res := v.verifySignature(attestation, state); !res.IsPassed() {
			return res
		}
	}
	return Passed
}

// verifySignature runs the two-message aggregate check: participants split
// by custody bit, each group verified over its own message.
func (v *AttestationVerifier) verifySignature(attestation types.Attestation, state *types.BeaconState) VerificationResult {
	data := attestation.Data

	participants, err := v.spec.AttestationParticipants(state, data, attestation.AggregationBitfield)
	if err != nil {
		return Failed("could not expand participants: %v", err)
	}
	custodyBit1, err := v.spec.AttestationParticipants(state, data, attestation.CustodyBitfield)
	if err != nil {
		return Failed("could not expand custody participants: %v", err)
	}
	inBit1 := make(map[types.ValidatorIndex]bool, len(custodyBit1))
	for _, i := range custodyBit1 {
		inBit1[i] = true
	}
	var custodyBit0 []types.ValidatorIndex
	for _, i := range participants {
		if !inBit1[i] {
			custodyBit0 = append(custodyBit0, i)
		}
	}

	// An empty participant group contributes the identity point and drops
	// out of the pairing; only non-empty groups enter the check.
	var pubs []*bls.PublicKey
	var messages []types.Hash32
	if len(custodyBit0) > 0 {
		group0, err := bls.AggregatePubkeys(helpers.PubkeysOf(state, custodyBit0))
		if err != nil {
			return Failed("could not aggregate custody-bit-0 pubkeys: %v", err)
		}
		pubs = append(pubs, group0)
		messages = append(messages, v.spec.HashTreeRoot(types.AttestationDataAndCustodyBit{Data: data, CustodyBit: false}))
	}
	if len(custodyBit1) > 0 {
		group1, err := bls.AggregatePubkeys(helpers.PubkeysOf(state, custodyBit1))
		if err != nil {
			return Failed("could not aggregate custody-bit-1 pubkeys: %v", err)
		}
		pubs = append(pubs, group1)
		messages = append(messages, v.spec.HashTreeRoot(types.AttestationDataAndCustodyBit{Data: data, CustodyBit: true}))
	}
	domain := v.spec.Domain(state.Fork, v.spec.SlotToEpoch(data.Slot), params.DomainAttestation)

	if !bls.VerifyMultiple(pubs, messages, attestation.AggregateSignature, domain) {
		return Failed("failed to verify aggregate signature")
	}
	return Passed
}
