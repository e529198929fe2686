package observer

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/myaccount-club/beacon-chain/chain"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/stream"
	"github.com/myaccount-club/beacon-chain/transition"
)

var log = logrus.WithField("prefix", "observer")

// StateProcessor recomputes the observable state on every slot tick and on
// every imported block, publishing snapshots to subscribers.
type StateProcessor struct {
	mu sync.Mutex

	spec   *helpers.SpecHelpers
	blocks *chain.BlockStorage
	tuples *chain.TupleStorage
	headFn *chain.LMDGhostHeadFunction
	slots  *transition.ExtendedSlotTransition
	pool   *OperationPool
	nowFn  func() int64
	states *stream.Processor[ObservableBeaconState]
}

// NewStateProcessor wires the processor.
func NewStateProcessor(
	spec *helpers.SpecHelpers,
	blocks *chain.BlockStorage,
	tuples *chain.TupleStorage,
	headFn *chain.LMDGhostHeadFunction,
	slots *transition.ExtendedSlotTransition,
	pool *OperationPool,
	nowFn func() int64,
) *StateProcessor {
	return &StateProcessor{
		spec:   spec,
		blocks: blocks,
		tuples: tuples,
		headFn: headFn,
		slots:  slots,
		pool:   pool,
		nowFn:  nowFn,
		states: stream.NewProcessor[ObservableBeaconState]("observer.states"),
	}
}

// StatesStream publishes observable state snapshots.
func (p *StateProcessor) StatesStream() *stream.Processor[ObservableBeaconState] {
	return p.states
}

// OnBlockImported refreshes the head after a block import. The imported
// tuple's state feeds the fork-choice participant expansion.
func (p *StateProcessor) OnBlockImported(tuple chain.BeaconTuple) {
	p.headFn.OnNewState(tuple.State.State)
	p.refresh(tuple.State.Transition == transition.Initial)
}

// OnSlotTick refreshes the observable state at a slot boundary.
func (p *StateProcessor) OnSlotTick() {
	p.refresh(false)
}

// refresh recomputes the head, re-points storage at it and publishes the
// latest slot state.
func (p *StateProcessor) refresh(genesis bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot, err := p.snapshot(genesis)
	if err != nil {
		log.WithError(err).Warn("Could not refresh observable state")
		return
	}
	p.states.Send(*snapshot)
}

func (p *StateProcessor) snapshot(genesis bool) (*ObservableBeaconState, error) {
	head, err := p.headFn.GetHead()
	if err != nil {
		return nil, errors.Wrap(err, "could not compute head")
	}
	headRoot := p.spec.HashTreeRoot(head)
	if err := p.blocks.ReorgTo(headRoot); err != nil {
		return nil, errors.Wrap(err, "could not re-point storage at head")
	}
	tuple, ok := p.tuples.Get(headRoot)
	if !ok {
		return nil, errors.Errorf("no tuple for head %s", headRoot)
	}

	stateEx := tuple.State
	if !genesis {
		currentSlot := p.spec.SlotAtTime(stateEx.State, p.nowFn())
		if stateEx.State.Slot < currentSlot {
			stateEx, err = p.slots.ApplyTo(stateEx, currentSlot)
			if err != nil {
				return nil, errors.Wrap(err, "could not advance state to the current slot")
			}
		}
	}

	// Attestations at or before the finalized boundary slot can no longer
	// move the head; drop them from the fork-choice cache and the pool.
	finalizedSlot := p.spec.EpochStartSlot(stateEx.State.FinalizedEpoch)
	if uint64(finalizedSlot) > p.spec.Spec().GenesisSlot {
		p.headFn.PurgeAttestations(finalizedSlot)
		p.pool.PruneAttestations(finalizedSlot)
	}

	return &ObservableBeaconState{
		Head:              head,
		LatestSlotState:   stateEx,
		PendingOperations: p.pool,
	}, nil
}
