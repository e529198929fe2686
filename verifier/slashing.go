package verifier

import (
	"github.com/myaccount-club/beacon-chain/bls"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/types"
)

// ProposerSlashingVerifier checks proposer slashing evidence: two
// conflicting proposals at the same slot, both validly signed by the
// accused proposer, who must still be slashable.
type ProposerSlashingVerifier struct {
	spec *helpers.SpecHelpers
}

// NewProposerSlashingVerifier builds the verifier.
func NewProposerSlashingVerifier(spec *helpers.SpecHelpers) *ProposerSlashingVerifier {
	return &ProposerSlashingVerifier{spec: spec}
}

// Verify applies the proposer slashing rules.
func (v *ProposerSlashingVerifier) Verify(slashing types.ProposerSlashing, state *types.BeaconState) VerificationResult {
	if uint64(slashing.ProposerIndex) >= uint64(len(state.ValidatorRegistry)) {
		return Failed("proposer index %d is out of range", slashing.ProposerIndex)
	}
	proposer := state.ValidatorRegistry[slashing.ProposerIndex]
	if proposer.Slashed {
		return Failed("proposer %d is already slashed", slashing.ProposerIndex)
	}
	if slashing.Proposal1.Slot != slashing.Proposal2.Slot {
		return Failed("proposals are for different slots %d and %d", slashing.Proposal1.Slot, slashing.Proposal2.Slot)
	}
	if slashing.Proposal1.Shard != slashing.Proposal2.Shard {
		return Failed("proposals are for different shards")
	}
	if slashing.Proposal1.BlockRoot == slashing.Proposal2.BlockRoot {
		return Failed("proposals do not conflict: identical block root %s", slashing.Proposal1.BlockRoot)
	}
	if v.spec.BLSVerificationEnabled() {
		epoch := v.spec.SlotToEpoch(slashing.Proposal1.Slot)
		domain := v.spec.Domain(state.Fork, epoch, params.DomainProposal)
		if !bls.Verify(proposer.Pubkey, v.spec.HashTreeRoot(slashing.Proposal1), slashing.Signature1, domain) {
			return Failed("proposal 1 signature is invalid")
		}
		if !bls.Verify(proposer.Pubkey, v.spec.HashTreeRoot(slashing.Proposal2), slashing.Signature2, domain) {
			return Failed("proposal 2 signature is invalid")
		}
	}
	return Passed
}

// AttesterSlashingVerifier checks attester slashing evidence.
type AttesterSlashingVerifier struct {
	spec *helpers.SpecHelpers
}

// NewAttesterSlashingVerifier builds the verifier.
func NewAttesterSlashingVerifier(spec *helpers.SpecHelpers) *AttesterSlashingVerifier {
	return &AttesterSlashingVerifier{spec: spec}
}

// Verify applies the attester slashing rules: the two votes must conflict
// (double vote or surround vote) and share at least one not-yet-slashed
// validator.
func (v *AttesterSlashingVerifier) Verify(slashing types.AttesterSlashing, state *types.BeaconState) VerificationResult {
	a1 := slashing.SlashableAttestation1
	a2 := slashing.SlashableAttestation2

	if a1.Data == a2.Data {
		return Failed("slashable attestations carry identical data")
	}
	if !v.isDoubleVote(a1.Data, a2.Data) && !v.isSurroundVote(a1.Data, a2.Data) {
		return Failed("attestations neither double vote nor surround vote")
	}
	if res := v.verifySlashable(a1, state); !res.IsPassed() {
		return res
	}
	if res := v.verifySlashable(a2, state); !res.IsPassed() {
		return res
	}

	slashable := false
	in2 := make(map[types.ValidatorIndex]bool, len(a2.ValidatorIndices))
	for _, i := range a2.ValidatorIndices {
		in2[i] = true
	}
	for _, i := range a1.ValidatorIndices {
		if in2[i] && !state.ValidatorRegistry[i].Slashed {
			slashable = true
			break
		}
	}
	if !slashable {
		return Failed("no slashable validator in the intersection")
	}
	return Passed
}

func (v *AttesterSlashingVerifier) isDoubleVote(d1, d2 types.AttestationData) bool {
	return d1.Slot != d2.Slot && v.spec.SlotToEpoch(d1.Slot) == v.spec.SlotToEpoch(d2.Slot) ||
		d1.Slot == d2.Slot && d1 != d2
}

func (v *AttesterSlashingVerifier) isSurroundVote(d1, d2 types.AttestationData) bool {
	sourceEpoch1 := d1.JustifiedEpoch
	sourceEpoch2 := d2.JustifiedEpoch
	targetEpoch1 := v.spec.SlotToEpoch(d1.Slot)
	targetEpoch2 := v.spec.SlotToEpoch(d2.Slot)
	return sourceEpoch1 < sourceEpoch2 && targetEpoch2 < targetEpoch1
}

// verifySlashable checks a slashable attestation's structure and aggregate
// signature over its explicit participant list.
func (v *AttesterSlashingVerifier) verifySlashable(a types.SlashableAttestation, state *types.BeaconState) VerificationResult {
	cfg := v.spec.Spec()
	if len(a.ValidatorIndices) == 0 {
		return Failed("slashable attestation names no validators")
	}
	if uint64(len(a.ValidatorIndices)) > cfg.MaxIndicesPerSlashableVote {
		return Failed("slashable attestation names %d validators, limit %d", len(a.ValidatorIndices), cfg.MaxIndicesPerSlashableVote)
	}
	if !a.CustodyBitfield.IsZero() {
		return Failed("custody_bitfield must be zero in phase 0")
	}
	for i := 1; i < len(a.ValidatorIndices); i++ {
		if a.ValidatorIndices[i-1] >= a.ValidatorIndices[i] {
			return Failed("validator indices are not strictly increasing")
		}
	}
	for _, i := range a.ValidatorIndices {
		if uint64(i) >= uint64(len(state.ValidatorRegistry)) {
			return Failed("validator index %d is out of range", i)
		}
	}
	if v.spec.BLSVerificationEnabled() {
		group, err := bls.AggregatePubkeys(helpers.PubkeysOf(state, a.ValidatorIndices))
		if err != nil {
			return Failed("could not aggregate pubkeys: %v", err)
		}
		message := v.spec.HashTreeRoot(types.AttestationDataAndCustodyBit{Data: a.Data, CustodyBit: false})
		domain := v.spec.Domain(state.Fork, v.spec.SlotToEpoch(a.Data.Slot), params.DomainAttestation)
		if !bls.VerifyMultiple([]*bls.PublicKey{group}, []types.Hash32{message}, a.AggregateSignature, domain) {
			return Failed("slashable attestation signature is invalid")
		}
	}
	return Passed
}
