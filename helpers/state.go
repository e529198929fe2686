package helpers

import (
	"github.com/pkg/errors"

	"github.com/myaccount-club/beacon-chain/types"
)

// RandaoMix returns the randao mix for an epoch within the ring window.
//
// Spec pseudocode definition:
//
//	def get_randao_mix(state: BeaconState, epoch: Epoch) -> Bytes32:
//	  return state.latest_randao_mixes[epoch % LATEST_RANDAO_MIXES_LENGTH]
func (s *SpecHelpers) RandaoMix(state *types.BeaconState, epoch types.Epoch) (types.Hash32, error) {
	current := s.CurrentEpoch(state)
	length := types.Epoch(s.cfg.LatestRandaoMixesLength)
	if epoch > current {
		return types.ZeroHash, errors.Errorf("randao mix epoch %d is in the future (current %d)", epoch, current)
	}
	if current >= length && epoch <= current-length {
		return types.ZeroHash, errors.Errorf("randao mix epoch %d is out of the ring window", epoch)
	}
	return state.LatestRandaoMixes[uint64(epoch)%s.cfg.LatestRandaoMixesLength], nil
}

// BlockRoot returns the block root recorded for a slot within the ring
// window.
func (s *SpecHelpers) BlockRoot(state *types.BeaconState, slot types.Slot) (types.Hash32, error) {
	if slot >= state.Slot {
		return types.ZeroHash, errors.Errorf("block root slot %d not yet recorded (state at %d)", slot, state.Slot)
	}
	if uint64(state.Slot)-uint64(slot) > s.cfg.LatestBlockRootsLength {
		return types.ZeroHash, errors.Errorf("block root slot %d is out of the ring window", slot)
	}
	return state.LatestBlockRoots[uint64(slot)%s.cfg.LatestBlockRootsLength], nil
}

// ActiveIndexRoot returns the active index root for an epoch.
func (s *SpecHelpers) ActiveIndexRoot(state *types.BeaconState, epoch types.Epoch) types.Hash32 {
	return state.LatestActiveIndexRoots[uint64(epoch)%s.cfg.LatestActiveIndexRootsLength]
}

// ActiveValidatorIndices returns the sorted indices of validators active at
// the given epoch.
//
// Spec pseudocode definition:
//
//	def get_active_validator_indices(validators, epoch) -> List[ValidatorIndex]:
//	  return [i for i, v in enumerate(validators) if is_active_validator(v, epoch)]
func ActiveValidatorIndices(registry []types.ValidatorRecord, epoch types.Epoch) []types.ValidatorIndex {
	var indices []types.ValidatorIndex
	for i, v := range registry {
		if v.IsActiveAt(epoch) {
			indices = append(indices, types.ValidatorIndex(i))
		}
	}
	return indices
}

// EffectiveBalance returns the balance of a validator capped at
// MAX_DEPOSIT_AMOUNT.
func (s *SpecHelpers) EffectiveBalance(state *types.BeaconState, index types.ValidatorIndex) types.Gwei {
	balance := state.ValidatorBalances[index]
	max := types.Gwei(s.cfg.MaxDepositAmount)
	if balance > max {
		return max
	}
	return balance
}

// TotalBalance sums the effective balances of the given validators.
func (s *SpecHelpers) TotalBalance(state *types.BeaconState, indices []types.ValidatorIndex) types.Gwei {
	var total types.Gwei
	for _, i := range indices {
		total += s.EffectiveBalance(state, i)
	}
	return total
}

// GenerateSeed derives the shuffling seed for an epoch from its randao mix.
func (s *SpecHelpers) GenerateSeed(state *types.BeaconState, epoch types.Epoch) (types.Hash32, error) {
	mix, err := s.RandaoMix(state, epoch)
	if err != nil {
		return types.ZeroHash, err
	}
	buf := make([]byte, 0, 64)
	buf = append(buf, mix[:]...)
	epochChunk := s.hasher.Uint64Root(uint64(epoch))
	buf = append(buf, epochChunk[:]...)
	return s.Hash(buf), nil
}
