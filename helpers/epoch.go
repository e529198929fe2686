package helpers

import "github.com/myaccount-club/beacon-chain/types"

// SlotToEpoch returns the epoch number of the input slot.
//
// Spec pseudocode definition:
//
//	def slot_to_epoch(slot: SlotNumber) -> Epoch:
//	  return slot // SLOTS_PER_EPOCH
func (s *SpecHelpers) SlotToEpoch(slot types.Slot) types.Epoch {
	return types.Epoch(uint64(slot) / s.cfg.SlotsPerEpoch)
}

// CurrentEpoch returns the epoch of the state's slot.
//
// Spec pseudocode definition:
//
//	def get_current_epoch(state: BeaconState) -> Epoch:
//	  return slot_to_epoch(state.slot)
func (s *SpecHelpers) CurrentEpoch(state *types.BeaconState) types.Epoch {
	return s.SlotToEpoch(state.Slot)
}

// PreviousEpoch returns the epoch preceding the current one, floored at the
// genesis epoch.
func (s *SpecHelpers) PreviousEpoch(state *types.BeaconState) types.Epoch {
	current := s.CurrentEpoch(state)
	if current > types.Epoch(s.cfg.GenesisEpoch()) {
		return current - 1
	}
	return current
}

// NextEpoch returns the epoch following the current one.
func (s *SpecHelpers) NextEpoch(state *types.BeaconState) types.Epoch {
	return s.CurrentEpoch(state) + 1
}

// EpochStartSlot returns the first slot of an epoch.
//
// Spec pseudocode definition:
//
//	def get_epoch_start_slot(epoch: Epoch) -> SlotNumber:
//	  return epoch * SLOTS_PER_EPOCH
func (s *SpecHelpers) EpochStartSlot(epoch types.Epoch) types.Slot {
	return types.Slot(uint64(epoch) * s.cfg.SlotsPerEpoch)
}

// IsEpochEnd reports whether slot is the last slot of its epoch.
func (s *SpecHelpers) IsEpochEnd(slot types.Slot) bool {
	return (uint64(slot)+1)%s.cfg.SlotsPerEpoch == 0
}
