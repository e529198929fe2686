// Package transition implements the beacon chain state transition
// functions: genesis, per-slot, per-block and per-epoch, composed into the
// block transition applied on block import.
package transition

import (
	"github.com/pkg/errors"

	"github.com/myaccount-club/beacon-chain/types"
)

// TransitionType tags the transition that produced a state. The tag
// enforces legal ordering: BLOCK follows SLOT; EPOCH follows BLOCK or SLOT
// at an epoch end; SLOT follows anything.
type TransitionType int

const (
	// Initial marks the genesis state.
	Initial TransitionType = iota
	// Slot marks a state produced by the per-slot transition.
	Slot
	// Block marks a state produced by the per-block transition.
	Block
	// Epoch marks a state produced by the per-epoch transition.
	Epoch
	// Unknown marks states of unknown provenance (deserialized).
	Unknown
)

func (t TransitionType) String() string {
	switch t {
	case Initial:
		return "INITIAL"
	case Slot:
		return "SLOT"
	case Block:
		return "BLOCK"
	case Epoch:
		return "EPOCH"
	default:
		return "UNKNOWN"
	}
}

// ErrTransitionOrder reports an illegal transition sequence.
type ErrTransitionOrder struct {
	Applying TransitionType
	After    TransitionType
}

func (e ErrTransitionOrder) Error() string {
	return "transition " + e.Applying.String() + " cannot be applied after " + e.After.String()
}

// canFollow reports whether a transition may be applied to a state produced
// by prev.
func canFollow(applying, prev TransitionType) bool {
	switch applying {
	case Slot:
		return true
	case Block:
		return prev == Slot || prev == Unknown
	case Epoch:
		return prev == Block || prev == Slot || prev == Unknown
	default:
		return false
	}
}

// StateEx is a beacon state extended with the root of the latest applied
// block and the transition that produced it.
type StateEx struct {
	State           *types.BeaconState
	LatestBlockRoot types.Hash32
	Transition      TransitionType
}

// NewStateEx wraps a state.
func NewStateEx(state *types.BeaconState, latestBlockRoot types.Hash32, transition TransitionType) *StateEx {
	return &StateEx{State: state, LatestBlockRoot: latestBlockRoot, Transition: transition}
}

// checkOrder validates the transition sequence.
func checkOrder(applying TransitionType, prev *StateEx) error {
	if !canFollow(applying, prev.Transition) {
		return errors.WithStack(ErrTransitionOrder{Applying: applying, After: prev.Transition})
	}
	return nil
}
