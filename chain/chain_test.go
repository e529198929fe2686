package chain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/myaccount-club/beacon-chain/bls"
	"github.com/myaccount-club/beacon-chain/chain"
	"github.com/myaccount-club/beacon-chain/chain/observer"
	"github.com/myaccount-club/beacon-chain/db"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/pow"
	"github.com/myaccount-club/beacon-chain/transition"
	"github.com/myaccount-club/beacon-chain/types"
	"github.com/myaccount-club/beacon-chain/validator"
	"github.com/myaccount-club/beacon-chain/verifier"
)

type chainFixture struct {
	spec        *helpers.SpecHelpers
	credentials []*bls.Credentials
	contract    *pow.SimulatedDepositContract
	beacon      *chain.MutableBeaconChain
	blocks      *chain.BlockStorage
	tuples      *chain.TupleStorage
	genesisBlk  *types.BeaconBlock
	genesis     *transition.StateEx
	slots       *transition.ExtendedSlotTransition
	perBlock    *transition.PerBlockTransition
}

func newChainFixture(t *testing.T, validators int) *chainFixture {
	t.Helper()
	spec := helpers.New(params.MinimalSpec())
	credentials := make([]*bls.Credentials, validators)
	for i := range credentials {
		credentials[i] = bls.NewCredentials(bls.NewKeySigner(bls.RandKey()))
	}
	contract := pow.NewSimulatedDepositContract(spec, credentials, 600, types.Hash32{0x01})
	chainStart := <-contract.ChainStartEvent()

	genesisBlk := transition.EmptyGenesisBlock(spec)
	genesis, err := transition.NewInitialTransition(chainStart, spec).Apply(genesisBlk)
	require.NoError(t, err)

	kv := db.NewMemoryKV()
	blocks := chain.NewBlockStorage(kv, spec)
	tuples := chain.NewTupleStorage(kv, blocks, spec)

	perSlot := transition.NewPerSlotTransition(spec)
	perEpoch := transition.NewPerEpochTransition(spec)
	perBlock := transition.NewPerBlockTransition(spec)
	slots := transition.NewExtendedSlotTransition(perSlot, perEpoch, spec)

	beacon := chain.NewMutableBeaconChain(spec, blocks, tuples, verifier.NewBlockVerifier(spec), slots, perBlock)
	beacon.Initialize(genesisBlk, genesis)

	return &chainFixture{
		spec:        spec,
		credentials: credentials,
		contract:    contract,
		beacon:      beacon,
		blocks:      blocks,
		tuples:      tuples,
		genesisBlk:  genesisBlk,
		genesis:     genesis,
		slots:       slots,
		perBlock:    perBlock,
	}
}

// proposeAt builds a fully signed block on top of parent for its next slot
// using the real proposer.
func (f *chainFixture) proposeAt(t *testing.T, parent *types.BeaconBlock, parentState *transition.StateEx, slot types.Slot) *types.BeaconBlock {
	t.Helper()
	stateEx, err := f.slots.ApplyTo(parentState, slot)
	require.NoError(t, err)

	proposerIndex, err := f.spec.BeaconProposerIndex(stateEx.State, slot)
	require.NoError(t, err)

	proposer := validator.NewProposer(f.spec, f.perBlock, f.contract)
	block, err := proposer.Propose(observer.ObservableBeaconState{
		Head:              parent,
		LatestSlotState:   stateEx,
		PendingOperations: observer.EmptyPool{},
	}, f.credentials[proposerIndex].Signer())
	require.NoError(t, err)
	return block
}

// A block produced by the proposer passes full verification, including the
// proposer and RANDAO signatures, and lands in storage.
func TestInsertProposedBlock(t *testing.T) {
	f := newChainFixture(t, 8)

	block := f.proposeAt(t, f.genesisBlk, f.genesis, 1)
	inserted, err := f.beacon.Insert(block)
	require.NoError(t, err)
	require.True(t, inserted)

	root := f.spec.HashTreeRoot(block)
	tuple, ok := f.tuples.Get(root)
	require.True(t, ok)
	require.Equal(t, types.Slot(1), tuple.State.State.Slot)
	require.Equal(t, block.StateRoot, f.spec.HashTreeRoot(tuple.State.State))

	// Re-inserting is a no-op.
	inserted, err = f.beacon.Insert(block)
	require.NoError(t, err)
	require.False(t, inserted)
}

func TestInsertRejectsBadSignature(t *testing.T) {
	f := newChainFixture(t, 8)

	block := f.proposeAt(t, f.genesisBlk, f.genesis, 1)
	forged := block.WithSignature(types.BLSSignature{0x01})

	_, err := f.beacon.Insert(forged)
	require.Error(t, err)
	var validationErr *chain.ValidationError
	require.ErrorAs(t, err, &validationErr)

	// The bad block never reached storage.
	_, ok := f.blocks.Get(f.spec.HashTreeRoot(forged))
	require.False(t, ok)
}

func TestInsertRejectsUnknownParent(t *testing.T) {
	f := newChainFixture(t, 8)

	orphan := types.NewBlock(1, types.Hash32{0xff}, types.ZeroHash, types.EmptySignature,
		types.Eth1Data{}, types.EmptyBody(), types.EmptySignature)
	_, err := f.beacon.Insert(orphan)
	var missing *chain.MissingBlockError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, types.Hash32{0xff}, missing.Root)
}

func TestInsertChainOfBlocks(t *testing.T) {
	f := newChainFixture(t, 8)

	parent, parentState := f.genesisBlk, f.genesis
	for slot := types.Slot(1); slot <= 3; slot++ {
		block := f.proposeAt(t, parent, parentState, slot)
		inserted, err := f.beacon.Insert(block)
		require.NoError(t, err)
		require.True(t, inserted)

		tuple, ok := f.tuples.Get(f.spec.HashTreeRoot(block))
		require.True(t, ok)
		parent, parentState = block, tuple.State
	}

	max, ok := f.blocks.MaxSlot()
	require.True(t, ok)
	require.Equal(t, types.Slot(3), max)
}
