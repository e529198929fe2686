package transition

import (
	"math/big"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/types"
)

// PerEpochTransition runs at every epoch end: justification and
// finalization bookkeeping, registry rotation, slashing penalties, ring
// maintenance and attestation purging.
type PerEpochTransition struct {
	spec *helpers.SpecHelpers
}

// NewPerEpochTransition builds the per-epoch transition.
func NewPerEpochTransition(spec *helpers.SpecHelpers) *PerEpochTransition {
	return &PerEpochTransition{spec: spec}
}

// Apply produces the epoch-rotated state.
func (t *PerEpochTransition) Apply(stateEx *StateEx) (*StateEx, error) {
	if err := checkOrder(Epoch, stateEx); err != nil {
		return nil, err
	}
	cfg := t.spec.Spec()
	state := stateEx.State.Copy()
	currentEpoch := t.spec.CurrentEpoch(state)
	previousEpoch := t.spec.PreviousEpoch(state)
	nextEpoch := currentEpoch + 1

	if err := t.updateJustification(state, currentEpoch, previousEpoch); err != nil {
		return nil, err
	}
	t.updateRegistry(state, currentEpoch)
	t.processSlashings(state, currentEpoch)
	t.processExitQueue(state, currentEpoch)

	// Ring maintenance.
	delayedEpoch := nextEpoch + types.Epoch(cfg.ActivationExitDelay)
	state.LatestActiveIndexRoots[uint64(delayedEpoch)%cfg.LatestActiveIndexRootsLength] =
		activeIndexRoot(t.spec, state.ValidatorRegistry, delayedEpoch)
	state.LatestSlashedBalances[uint64(nextEpoch)%cfg.LatestSlashedExitLength] =
		state.LatestSlashedBalances[uint64(currentEpoch)%cfg.LatestSlashedExitLength]
	currentMix, err := t.spec.RandaoMix(state, currentEpoch)
	if err != nil {
		return nil, errors.Wrap(err, "could not carry randao mix forward")
	}
	state.LatestRandaoMixes[uint64(nextEpoch)%cfg.LatestRandaoMixesLength] = currentMix

	// Drop attestations that can no longer affect justification.
	kept := state.LatestAttestations[:0]
	for _, a := range state.LatestAttestations {
		if t.spec.SlotToEpoch(a.Data.Slot) >= currentEpoch {
			kept = append(kept, a)
		}
	}
	state.LatestAttestations = kept

	t.tallyEth1Votes(state, nextEpoch)

	log.WithFields(logrus.Fields{
		"epoch":     currentEpoch,
		"justified": state.JustifiedEpoch,
		"finalized": state.FinalizedEpoch,
	}).Debug("Epoch transition applied")

	return NewStateEx(state, stateEx.LatestBlockRoot, Epoch), nil
}

// updateJustification shifts the justification bitfield, records epoch
// boundary supermajorities and applies the four-case finalization rule.
func (t *PerEpochTransition) updateJustification(state *types.BeaconState, currentEpoch, previousEpoch types.Epoch) error {
	newJustified := state.JustifiedEpoch
	bitfield := state.JustificationBitfield << 1

	totalPrevious := t.spec.TotalBalance(state, helpers.ActiveValidatorIndices(state.ValidatorRegistry, previousEpoch))
	totalCurrent := t.spec.TotalBalance(state, helpers.ActiveValidatorIndices(state.ValidatorRegistry, currentEpoch))

	previousBoundary, err := t.boundaryAttestingBalance(state, previousEpoch)
	if err != nil {
		return err
	}
	if 3*previousBoundary >= 2*totalPrevious && totalPrevious > 0 {
		bitfield |= 2
		newJustified = previousEpoch
	}
	currentBoundary, err := t.boundaryAttestingBalance(state, currentEpoch)
	if err != nil {
		return err
	}
	if 3*currentBoundary >= 2*totalCurrent && totalCurrent > 0 {
		bitfield |= 1
		newJustified = currentEpoch
	}
	state.JustificationBitfield = bitfield

	switch {
	case bitfield>>1&7 == 7 && state.PreviousJustifiedEpoch+3 == currentEpoch:
		state.FinalizedEpoch = state.PreviousJustifiedEpoch
	case bitfield>>1&3 == 3 && state.PreviousJustifiedEpoch+2 == currentEpoch:
		state.FinalizedEpoch = state.PreviousJustifiedEpoch
	case bitfield&7 == 7 && state.JustifiedEpoch+2 == currentEpoch:
		state.FinalizedEpoch = state.JustifiedEpoch
	case bitfield&3 == 3 && state.JustifiedEpoch+1 == currentEpoch:
		state.FinalizedEpoch = state.JustifiedEpoch
	}

	state.PreviousJustifiedEpoch = state.JustifiedEpoch
	state.JustifiedEpoch = newJustified
	return nil
}

// boundaryAttestingBalance sums the effective balances of distinct
// participants whose pending attestations target the epoch's boundary
// block.
func (t *PerEpochTransition) boundaryAttestingBalance(state *types.BeaconState, epoch types.Epoch) (types.Gwei, error) {
	boundarySlot := t.spec.EpochStartSlot(epoch)
	if boundarySlot >= state.Slot {
		return 0, nil
	}
	boundaryRoot, err := t.spec.BlockRoot(state, boundarySlot)
	if err != nil {
		return 0, errors.Wrap(err, "could not resolve epoch boundary root")
	}
	seen := make(map[types.ValidatorIndex]bool)
	var total types.Gwei
	for _, a := range state.LatestAttestations {
		if t.spec.SlotToEpoch(a.Data.Slot) != epoch || a.Data.EpochBoundaryRoot != boundaryRoot {
			continue
		}
		participants, err := t.spec.AttestationParticipants(state, a.Data, a.AggregationBitfield)
		if err != nil {
			// Attestations from committees that can no longer be derived
			// (registry churn) simply stop counting.
			continue
		}
		for _, p := range participants {
			if !seen[p] {
				seen[p] = true
				total += t.spec.EffectiveBalance(state, p)
			}
		}
	}
	return total, nil
}

// updateRegistry activates pending validators and exits flagged ones, both
// bounded by the balance churn limit.
func (t *PerEpochTransition) updateRegistry(state *types.BeaconState, currentEpoch types.Epoch) {
	cfg := t.spec.Spec()
	active := helpers.ActiveValidatorIndices(state.ValidatorRegistry, currentEpoch)
	totalBalance := t.spec.TotalBalance(state, active)

	churnLimit := types.Gwei(cfg.MaxDepositAmount)
	if limit := totalBalance / types.Gwei(2*cfg.MaxBalanceChurnQuotient); limit > churnLimit {
		churnLimit = limit
	}

	var churn types.Gwei
	for i := range state.ValidatorRegistry {
		index := types.ValidatorIndex(i)
		v := &state.ValidatorRegistry[i]
		if v.ActivationEpoch == types.Epoch(params.FarFutureEpoch) &&
			state.ValidatorBalances[index] >= types.Gwei(cfg.MaxDepositAmount) {
			churn += t.spec.EffectiveBalance(state, index)
			if churn > churnLimit {
				break
			}
			t.spec.ActivateValidator(state, index, false)
		}
	}

	churn = 0
	for i := range state.ValidatorRegistry {
		index := types.ValidatorIndex(i)
		v := &state.ValidatorRegistry[i]
		if v.InitiatedExit && v.ExitEpoch == types.Epoch(params.FarFutureEpoch) {
			churn += t.spec.EffectiveBalance(state, index)
			if churn > churnLimit {
				break
			}
			t.spec.ExitValidator(state, index)
		}
	}
}

// processSlashings applies the deferred slashing penalty at the midpoint of
// each slashed validator's withdrawability delay.
func (t *PerEpochTransition) processSlashings(state *types.BeaconState, currentEpoch types.Epoch) {
	cfg := t.spec.Spec()
	active := helpers.ActiveValidatorIndices(state.ValidatorRegistry, currentEpoch)
	totalBalance := t.spec.TotalBalance(state, active)
	if totalBalance == 0 {
		return
	}

	ringLen := cfg.LatestSlashedExitLength
	totalAtStart := state.LatestSlashedBalances[(uint64(currentEpoch)+1)%ringLen]
	totalAtEnd := state.LatestSlashedBalances[uint64(currentEpoch)%ringLen]
	totalPenalties := totalAtEnd - totalAtStart

	for i := range state.ValidatorRegistry {
		index := types.ValidatorIndex(i)
		v := state.ValidatorRegistry[i]
		if !v.Slashed || currentEpoch != v.WithdrawableEpoch-types.Epoch(ringLen/2) {
			continue
		}
		effective := t.spec.EffectiveBalance(state, index)
		scaled := 3 * totalPenalties
		if scaled > totalBalance {
			scaled = totalBalance
		}
		// effective * scaled would overflow 64 bits at realistic balances.
		product := new(big.Int).Mul(new(big.Int).SetUint64(uint64(effective)), new(big.Int).SetUint64(uint64(scaled)))
		penalty := types.Gwei(product.Div(product, new(big.Int).SetUint64(uint64(totalBalance))).Uint64())
		if min := effective / types.Gwei(cfg.MinPenaltyQuotient); penalty < min {
			penalty = min
		}
		if state.ValidatorBalances[index] > penalty {
			state.ValidatorBalances[index] -= penalty
		} else {
			state.ValidatorBalances[index] = 0
		}
	}
}

// processExitQueue opens the withdrawability window for exited validators,
// oldest exits first, bounded per epoch.
func (t *PerEpochTransition) processExitQueue(state *types.BeaconState, currentEpoch types.Epoch) {
	cfg := t.spec.Spec()
	var eligible []types.ValidatorIndex
	for i := range state.ValidatorRegistry {
		v := state.ValidatorRegistry[i]
		if v.ExitEpoch <= currentEpoch && v.WithdrawableEpoch == types.Epoch(params.FarFutureEpoch) {
			eligible = append(eligible, types.ValidatorIndex(i))
		}
	}
	sort.Slice(eligible, func(a, b int) bool {
		return state.ValidatorRegistry[eligible[a]].ExitEpoch < state.ValidatorRegistry[eligible[b]].ExitEpoch
	})
	for i, index := range eligible {
		if uint64(i) >= cfg.MaxExitDequeuesPerEpoch {
			break
		}
		t.spec.PrepareValidatorForWithdrawal(state, index)
	}
}

// tallyEth1Votes closes an eth1 voting period, adopting any snapshot that
// won more than half of the period's slots.
func (t *PerEpochTransition) tallyEth1Votes(state *types.BeaconState, nextEpoch types.Epoch) {
	cfg := t.spec.Spec()
	if uint64(nextEpoch)%cfg.EpochsPerEth1VotingPeriod != 0 {
		return
	}
	periodSlots := cfg.EpochsPerEth1VotingPeriod * cfg.SlotsPerEpoch
	for _, vote := range state.Eth1DataVotes {
		if vote.VoteCount*2 > periodSlots {
			state.LatestEth1Data = vote.Eth1Data
			break
		}
	}
	state.Eth1DataVotes = nil
}
