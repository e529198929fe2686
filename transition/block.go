package transition

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/types"
)

// PerBlockTransition applies a block's mutations to the state: RANDAO
// mixing, the eth1-data vote, then every operation in the fixed order
// proposer slashings, attester slashings, attestations, deposits,
// voluntary exits, transfers. Inputs are assumed verified; failures inside
// the transition are fatal for the whole block.
type PerBlockTransition struct {
	spec *helpers.SpecHelpers
}

// NewPerBlockTransition builds the per-block transition.
func NewPerBlockTransition(spec *helpers.SpecHelpers) *PerBlockTransition {
	return &PerBlockTransition{spec: spec}
}

// Apply produces the post-state of a block.
func (t *PerBlockTransition) Apply(stateEx *StateEx, block *types.BeaconBlock) (*StateEx, error) {
	if err := checkOrder(Block, stateEx); err != nil {
		return nil, err
	}
	cfg := t.spec.Spec()
	state := stateEx.State.Copy()
	currentEpoch := t.spec.CurrentEpoch(state)

	log.WithFields(logrus.Fields{
		"slot":  block.Slot,
		"block": t.spec.HashTreeRoot(block).Short(),
	}).Debug("Applying block transition")

	// RANDAO:
	//   mix[current_epoch % N] = xor(get_randao_mix(state, current_epoch),
	//                                hash(block.randao_reveal))
	mix, err := t.spec.RandaoMix(state, currentEpoch)
	if err != nil {
		return nil, errors.Wrap(err, "could not read randao mix")
	}
	reveal := t.spec.Hash(block.RandaoReveal[:])
	var mixed types.Hash32
	for i := range mixed {
		mixed[i] = mix[i] ^ reveal[i]
	}
	state.LatestRandaoMixes[uint64(currentEpoch)%cfg.LatestRandaoMixesLength] = mixed

	// Eth1 data: bump the matching vote or open a fresh one.
	voted := false
	for i := range state.Eth1DataVotes {
		if state.Eth1DataVotes[i].Eth1Data == block.Eth1Data {
			state.Eth1DataVotes[i].VoteCount++
			voted = true
			break
		}
	}
	if !voted {
		state.Eth1DataVotes = append(state.Eth1DataVotes, types.Eth1DataVote{
			Eth1Data:  block.Eth1Data,
			VoteCount: 1,
		})
	}

	for _, slashing := range block.Body.ProposerSlashings {
		if err := t.spec.SlashValidator(state, slashing.ProposerIndex); err != nil {
			return nil, errors.Wrap(err, "could not apply proposer slashing")
		}
	}

	for _, slashing := range block.Body.AttesterSlashings {
		for _, index := range intersection(
			slashing.SlashableAttestation1.ValidatorIndices,
			slashing.SlashableAttestation2.ValidatorIndices,
		) {
			if state.ValidatorRegistry[index].Slashed {
				continue
			}
			if err := t.spec.SlashValidator(state, index); err != nil {
				return nil, errors.Wrap(err, "could not apply attester slashing")
			}
		}
	}

	for _, attestation := range block.Body.Attestations {
		state.LatestAttestations = append(state.LatestAttestations, types.PendingAttestationRecord{
			AggregationBitfield: attestation.AggregationBitfield.Copy(),
			Data:                attestation.Data,
			CustodyBitfield:     attestation.CustodyBitfield.Copy(),
			InclusionSlot:       state.Slot,
		})
	}

	for _, deposit := range block.Body.Deposits {
		if err := t.spec.ProcessDeposit(state, deposit); err != nil {
			return nil, errors.Wrap(err, "could not process deposit")
		}
	}

	for _, exit := range block.Body.VoluntaryExits {
		t.spec.InitiateValidatorExit(state, exit.ValidatorIndex)
	}

	if len(block.Body.Transfers) > 0 {
		proposer, err := t.spec.BeaconProposerIndex(state, state.Slot)
		if err != nil {
			return nil, errors.Wrap(err, "could not resolve transfer fee recipient")
		}
		for _, transfer := range block.Body.Transfers {
			state.ValidatorBalances[transfer.From] -= transfer.Amount + transfer.Fee
			state.ValidatorBalances[transfer.To] += transfer.Amount
			state.ValidatorBalances[proposer] += transfer.Fee
		}
	}

	return NewStateEx(state, t.spec.HashTreeRoot(block), Block), nil
}

func intersection(a, b []types.ValidatorIndex) []types.ValidatorIndex {
	inB := make(map[types.ValidatorIndex]bool, len(b))
	for _, v := range b {
		inB[v] = true
	}
	var out []types.ValidatorIndex
	for _, v := range a {
		if inB[v] {
			out = append(out, v)
		}
	}
	return out
}
