package validator

import (
	"github.com/pkg/errors"

	"github.com/myaccount-club/beacon-chain/bls"
	"github.com/myaccount-club/beacon-chain/chain/observer"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/types"
)

// BeaconChainAttester builds and signs an attestation to the observed head.
type BeaconChainAttester struct {
	spec *helpers.SpecHelpers
}

// NewAttester wires the attester.
func NewAttester(spec *helpers.SpecHelpers) *BeaconChainAttester {
	return &BeaconChainAttester{spec: spec}
}

// Attest produces the validator's attestation for the state's slot on the
// given shard.
func (a *BeaconChainAttester) Attest(
	validatorIndex types.ValidatorIndex,
	shard types.Shard,
	observable observer.ObservableBeaconState,
	signer bls.Signer,
) (*types.Attestation, error) {
	state := observable.LatestSlotState.State
	head := observable.Head

	committee, err := a.spec.CommitteeAtShard(state, state.Slot, shard)
	if err != nil {
		return nil, errors.Wrap(err, "could not resolve committee")
	}
	indexInCommittee := -1
	for i, index := range committee {
		if index == validatorIndex {
			indexInCommittee = i
			break
		}
	}
	if indexInCommittee < 0 {
		return nil, errors.Errorf("validator %d is not in the committee of shard %d at slot %d",
			validatorIndex, shard, state.Slot)
	}

	epochBoundaryRoot, err := a.epochBoundaryRoot(state, head)
	if err != nil {
		return nil, err
	}
	justifiedBlockRoot, err := a.justifiedBlockRoot(state, head)
	if err != nil {
		return nil, err
	}

	data := types.AttestationData{
		Slot:               state.Slot,
		Shard:              shard,
		BeaconBlockRoot:    a.spec.HashTreeRoot(head),
		EpochBoundaryRoot:  epochBoundaryRoot,
		CrosslinkDataRoot:  types.ZeroHash, // Phase 0 stub.
		LatestCrosslink:    a.latestCrosslink(state, shard),
		JustifiedEpoch:     state.JustifiedEpoch,
		JustifiedBlockRoot: justifiedBlockRoot,
	}

	aggregationBitfield := types.NewBitfield(len(committee))
	aggregationBitfield.SetBitAt(indexInCommittee)
	custodyBitfield := types.NewBitfield(len(committee))

	message := a.spec.HashTreeRoot(types.AttestationDataAndCustodyBit{Data: data, CustodyBit: false})
	domain := a.spec.Domain(state.Fork, a.spec.CurrentEpoch(state), params.DomainAttestation)
	signature := signer.Sign(message, domain)

	return &types.Attestation{
		AggregationBitfield: aggregationBitfield,
		Data:                data,
		CustodyBitfield:     custodyBitfield,
		AggregateSignature:  signature,
	}, nil
}

// epochBoundaryRoot is the head itself when the head sits on the epoch
// boundary slot, otherwise the recorded root of the boundary slot.
func (a *BeaconChainAttester) epochBoundaryRoot(state *types.BeaconState, head *types.BeaconBlock) (types.Hash32, error) {
	boundarySlot := a.spec.EpochStartSlot(a.spec.SlotToEpoch(head.Slot))
	if boundarySlot == head.Slot {
		return a.spec.HashTreeRoot(head), nil
	}
	root, err := a.spec.BlockRoot(state, boundarySlot)
	if err != nil {
		return types.ZeroHash, errors.Wrap(err, "could not resolve epoch boundary root")
	}
	return root, nil
}

// justifiedBlockRoot resolves the root of the justified epoch's boundary
// block in the chain defined by head.
func (a *BeaconChainAttester) justifiedBlockRoot(state *types.BeaconState, head *types.BeaconBlock) (types.Hash32, error) {
	slot := a.spec.EpochStartSlot(state.JustifiedEpoch)
	if slot == head.Slot {
		return a.spec.HashTreeRoot(head), nil
	}
	root, err := a.spec.BlockRoot(state, slot)
	if err != nil {
		return types.ZeroHash, errors.Wrap(err, "could not resolve justified block root")
	}
	return root, nil
}

// latestCrosslink is the state's crosslink for the shard; the beacon-chain
// shard attests with the empty crosslink.
func (a *BeaconChainAttester) latestCrosslink(state *types.BeaconState, shard types.Shard) types.Crosslink {
	if uint64(shard) == a.spec.Spec().BeaconChainShardNumber {
		return types.EmptyCrosslink
	}
	return state.LatestCrosslinks[shard]
}
