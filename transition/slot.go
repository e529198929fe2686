package transition

import (
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/types"
)

// PerSlotTransition advances a state by exactly one slot: the previous
// slot's block root is rotated into the block-roots ring and the
// active-index ring is carried forward.
type PerSlotTransition struct {
	spec *helpers.SpecHelpers
}

// NewPerSlotTransition builds the per-slot transition.
func NewPerSlotTransition(spec *helpers.SpecHelpers) *PerSlotTransition {
	return &PerSlotTransition{spec: spec}
}

// Apply produces the state of the next slot.
func (t *PerSlotTransition) Apply(stateEx *StateEx) (*StateEx, error) {
	if err := checkOrder(Slot, stateEx); err != nil {
		return nil, err
	}
	cfg := t.spec.Spec()
	state := stateEx.State.Copy()

	// Record the latest block root for the slot being left behind.
	state.LatestBlockRoots[uint64(state.Slot)%cfg.LatestBlockRootsLength] = stateEx.LatestBlockRoot

	// Carry the active-index root forward into the next epoch's ring entry.
	nextEpoch := t.spec.SlotToEpoch(state.Slot + 1)
	state.LatestActiveIndexRoots[uint64(nextEpoch)%cfg.LatestActiveIndexRootsLength] =
		t.spec.ActiveIndexRoot(state, t.spec.SlotToEpoch(state.Slot))

	state.Slot++
	return NewStateEx(state, stateEx.LatestBlockRoot, Slot), nil
}

// ExtendedSlotTransition advances a state to a target slot, running the
// per-epoch transition at each epoch boundary crossed on the way.
type ExtendedSlotTransition struct {
	perSlot  *PerSlotTransition
	perEpoch *PerEpochTransition
	spec     *helpers.SpecHelpers
}

// NewExtendedSlotTransition composes slot and epoch transitions.
func NewExtendedSlotTransition(perSlot *PerSlotTransition, perEpoch *PerEpochTransition, spec *helpers.SpecHelpers) *ExtendedSlotTransition {
	return &ExtendedSlotTransition{perSlot: perSlot, perEpoch: perEpoch, spec: spec}
}

// Apply advances the state one slot, applying the epoch transition first
// when the state sits on an epoch end.
func (t *ExtendedSlotTransition) Apply(stateEx *StateEx) (*StateEx, error) {
	if t.spec.IsEpochEnd(stateEx.State.Slot) {
		epochState, err := t.perEpoch.Apply(stateEx)
		if err != nil {
			return nil, err
		}
		stateEx = epochState
	}
	return t.perSlot.Apply(stateEx)
}

// ApplyTo advances the state through empty slots up to targetSlot.
func (t *ExtendedSlotTransition) ApplyTo(stateEx *StateEx, targetSlot types.Slot) (*StateEx, error) {
	current := stateEx
	for current.State.Slot < targetSlot {
		next, err := t.Apply(current)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}
