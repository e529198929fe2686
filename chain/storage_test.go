package chain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/myaccount-club/beacon-chain/db"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/types"
)

func testStorage() (*BlockStorage, *helpers.SpecHelpers) {
	spec := helpers.New(params.MinimalSpec(), helpers.WithoutBLSVerification())
	return NewBlockStorage(db.NewMemoryKV(), spec), spec
}

func makeBlock(spec *helpers.SpecHelpers, slot types.Slot, parent types.Hash32, tag byte) (*types.BeaconBlock, types.Hash32) {
	block := types.NewBlock(slot, parent, types.Hash32{tag}, types.EmptySignature,
		types.Eth1Data{}, types.EmptyBody(), types.EmptySignature)
	return block, spec.HashTreeRoot(block)
}

func TestPutGetIdempotent(t *testing.T) {
	storage, spec := testStorage()
	block, root := makeBlock(spec, 0, types.ZeroHash, 0x01)

	require.Equal(t, root, storage.Put(block))
	require.Equal(t, root, storage.Put(block))

	stored, ok := storage.Get(root)
	require.True(t, ok)
	require.Equal(t, block.Slot, stored.Slot)
	require.Len(t, storage.SlotBlocks(0).Hashes, 1)
}

func TestGenesisAutoCanonical(t *testing.T) {
	storage, spec := testStorage()
	_, root := makeBlock(spec, 0, types.ZeroHash, 0x01)
	block, _ := makeBlock(spec, 0, types.ZeroHash, 0x01)
	storage.Put(block)

	canonical, ok := storage.SlotCanonicalBlock(0)
	require.True(t, ok)
	require.Equal(t, root, canonical)

	justified, ok := storage.JustifiedHead()
	require.True(t, ok)
	require.Equal(t, root, justified)
	finalized, ok := storage.FinalizedHead()
	require.True(t, ok)
	require.Equal(t, root, finalized)

	head, err := storage.CanonicalHead()
	require.NoError(t, err)
	require.Equal(t, root, head)
}

// Insert B0 <- B1 <- B2a, then B1 <- B2b <- B3b and reorg to B3b: slot 2
// flips to B2b and slot 3 marks B3b.
func TestReorg(t *testing.T) {
	storage, spec := testStorage()

	b0, r0 := makeBlock(spec, 0, types.ZeroHash, 0x01)
	storage.Put(b0)
	b1, r1 := makeBlock(spec, 1, r0, 0x02)
	storage.Put(b1)
	b2a, r2a := makeBlock(spec, 2, r1, 0x03)
	storage.Put(b2a)
	require.NoError(t, storage.ReorgTo(r2a))

	canonical, ok := storage.SlotCanonicalBlock(2)
	require.True(t, ok)
	require.Equal(t, r2a, canonical)

	b2b, r2b := makeBlock(spec, 2, r1, 0x04)
	storage.Put(b2b)
	b3b, r3b := makeBlock(spec, 3, r2b, 0x05)
	storage.Put(b3b)

	require.NoError(t, storage.ReorgTo(r3b))

	canonical, ok = storage.SlotCanonicalBlock(2)
	require.True(t, ok)
	require.Equal(t, r2b, canonical)
	canonical, ok = storage.SlotCanonicalBlock(3)
	require.True(t, ok)
	require.Equal(t, r3b, canonical)

	head, err := storage.CanonicalHead()
	require.NoError(t, err)
	require.Equal(t, r3b, head)

	// Slots 0 and 1 kept their marks.
	canonical, ok = storage.SlotCanonicalBlock(1)
	require.True(t, ok)
	require.Equal(t, r1, canonical)
}

func TestRemoveCanonicalPanics(t *testing.T) {
	storage, spec := testStorage()
	b0, r0 := makeBlock(spec, 0, types.ZeroHash, 0x01)
	storage.Put(b0)

	require.Panics(t, func() { storage.Remove(r0) })
}

func TestRemoveNonCanonical(t *testing.T) {
	storage, spec := testStorage()
	b0, r0 := makeBlock(spec, 0, types.ZeroHash, 0x01)
	storage.Put(b0)
	b1a, r1a := makeBlock(spec, 1, r0, 0x02)
	storage.Put(b1a)
	b1b, r1b := makeBlock(spec, 1, r0, 0x03)
	storage.Put(b1b)
	require.NoError(t, storage.ReorgTo(r1b))

	storage.Remove(r1a)
	_, ok := storage.Get(r1a)
	require.False(t, ok)

	canonical, ok := storage.SlotCanonicalBlock(1)
	require.True(t, ok)
	require.Equal(t, r1b, canonical)
}

func TestChildren(t *testing.T) {
	storage, spec := testStorage()
	b0, r0 := makeBlock(spec, 0, types.ZeroHash, 0x01)
	storage.Put(b0)
	b1a, _ := makeBlock(spec, 1, r0, 0x02)
	storage.Put(b1a)
	b1b, _ := makeBlock(spec, 1, r0, 0x03)
	storage.Put(b1b)
	b2, _ := makeBlock(spec, 2, spec.HashTreeRoot(b1a), 0x04)
	storage.Put(b2)

	children := storage.Children(r0)
	require.Len(t, children, 2)
	for _, c := range children {
		require.Equal(t, r0, c.ParentRoot)
	}
}

func TestMaxSlotTracksHighest(t *testing.T) {
	storage, spec := testStorage()
	b0, r0 := makeBlock(spec, 0, types.ZeroHash, 0x01)
	storage.Put(b0)
	b5, _ := makeBlock(spec, 5, r0, 0x02)
	storage.Put(b5)

	max, ok := storage.MaxSlot()
	require.True(t, ok)
	require.Equal(t, types.Slot(5), max)
}
