package chain

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/stream"
	"github.com/myaccount-club/beacon-chain/transition"
	"github.com/myaccount-club/beacon-chain/types"
	"github.com/myaccount-club/beacon-chain/verifier"
)

var log = logrus.WithField("prefix", "chain")

// MutableBeaconChain verifies and applies incoming blocks, stores the
// resulting tuples and publishes them. Writers are serialized internally;
// storage growth is slot-monotonic for any single branch.
type MutableBeaconChain struct {
	mu sync.Mutex

	spec     *helpers.SpecHelpers
	tuples   *TupleStorage
	blocks   *BlockStorage
	verify   *verifier.BlockVerifier
	slots    *transition.ExtendedSlotTransition
	perBlock *transition.PerBlockTransition

	blockStates *stream.Processor[BeaconTuple]
}

// NewMutableBeaconChain wires the insertion path.
func NewMutableBeaconChain(
	spec *helpers.SpecHelpers,
	blocks *BlockStorage,
	tuples *TupleStorage,
	verify *verifier.BlockVerifier,
	slots *transition.ExtendedSlotTransition,
	perBlock *transition.PerBlockTransition,
) *MutableBeaconChain {
	return &MutableBeaconChain{
		spec:        spec,
		tuples:      tuples,
		blocks:      blocks,
		verify:      verify,
		slots:       slots,
		perBlock:    perBlock,
		blockStates: stream.NewProcessor[BeaconTuple]("chain.blockStates"),
	}
}

// Initialize seeds an empty chain with the genesis tuple.
func (c *MutableBeaconChain) Initialize(genesisBlock *types.BeaconBlock, genesisState *transition.StateEx) types.Hash32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	root := c.tuples.Put(BeaconTuple{Block: genesisBlock, State: genesisState})
	c.blockStates.Send(BeaconTuple{Block: genesisBlock, State: genesisState})
	return root
}

// Insert verifies a block against its parent's post-state, applies the
// transition chain and stores the tuple. Bad blocks are dropped and
// reported; they never reach storage.
func (c *MutableBeaconChain) Insert(block *types.BeaconBlock) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	root := c.spec.HashTreeRoot(block)
	if _, exists := c.tuples.Get(root); exists {
		return false, nil
	}
	parent, ok := c.tuples.Get(block.ParentRoot)
	if !ok {
		return false, &MissingBlockError{Root: block.ParentRoot}
	}

	preState, err := c.slots.ApplyTo(parent.State, block.Slot)
	if err != nil {
		return false, err
	}

	if res := c.verify.Verify(block, preState.State, preState.LatestBlockRoot); !res.IsPassed() {
		log.WithFields(logrus.Fields{
			"slot":   block.Slot,
			"block":  root.Short(),
			"reason": res.Message(),
		}).Warn("Rejected block")
		return false, &ValidationError{Result: res}
	}

	postState, err := c.perBlock.Apply(preState, block)
	if err != nil {
		return false, err
	}
	if res := c.verify.VerifyStateRoot(block, postState.State); !res.IsPassed() {
		return false, &ValidationError{Result: res}
	}

	tuple := BeaconTuple{Block: block, State: postState}
	c.tuples.Put(tuple)
	c.blockStates.Send(tuple)

	log.WithFields(logrus.Fields{
		"slot":  block.Slot,
		"block": root.Short(),
	}).Info("Imported block")
	return true, nil
}

// BlockStatesStream publishes every imported tuple, genesis included.
func (c *MutableBeaconChain) BlockStatesStream() *stream.Processor[BeaconTuple] {
	return c.blockStates
}

// ValidationError wraps a verifier rejection.
type ValidationError struct {
	Result verifier.VerificationResult
}

func (e *ValidationError) Error() string {
	return "block validation failed: " + e.Result.Message()
}

// MissingBlockError reports a lookup of a block absent from storage.
type MissingBlockError struct {
	Root types.Hash32
}

func (e *MissingBlockError) Error() string {
	return "block " + e.Root.String() + " is not in storage"
}
