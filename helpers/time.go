package helpers

import "github.com/myaccount-club/beacon-chain/types"

// SlotStartTime returns the unix millisecond timestamp at which a slot
// begins.
func (s *SpecHelpers) SlotStartTime(state *types.BeaconState, slot types.Slot) int64 {
	elapsed := (uint64(slot) - s.cfg.GenesisSlot) * s.cfg.SecondsPerSlot
	return int64(state.GenesisTime+elapsed) * 1000
}

// SlotMiddleTime returns the unix millisecond timestamp of a slot's
// midpoint, the scheduled attestation moment.
func (s *SpecHelpers) SlotMiddleTime(state *types.BeaconState, slot types.Slot) int64 {
	return s.SlotStartTime(state, slot) + int64(s.cfg.SecondsPerSlot*1000/2)
}

// SlotAtTime returns the wall-clock slot for a unix millisecond timestamp.
func (s *SpecHelpers) SlotAtTime(state *types.BeaconState, nowMillis int64) types.Slot {
	genesisMillis := int64(state.GenesisTime) * 1000
	if nowMillis < genesisMillis {
		return types.Slot(s.cfg.GenesisSlot)
	}
	elapsed := uint64(nowMillis-genesisMillis) / (s.cfg.SecondsPerSlot * 1000)
	return types.Slot(s.cfg.GenesisSlot + elapsed)
}

// IsCurrentSlot reports whether the wall clock currently lies inside the
// state's slot.
func (s *SpecHelpers) IsCurrentSlot(state *types.BeaconState, nowMillis int64) bool {
	return s.SlotAtTime(state, nowMillis) == state.Slot
}
