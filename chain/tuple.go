package chain

import (
	"sync"

	"github.com/myaccount-club/beacon-chain/db"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/transition"
	"github.com/myaccount-club/beacon-chain/types"
)

var statesBucket = []byte("states")

// BeaconTuple pairs a block with its post-state.
type BeaconTuple struct {
	Block *types.BeaconBlock
	State *transition.StateEx
}

// TupleStorage maps block roots to (block, post-state) tuples. The state
// bytes live in the key-value store; every tuple put through this value
// also stays in an in-memory cache so the transition type survives
// in-process. Tuples read back from the store are not cached.
type TupleStorage struct {
	mu     sync.RWMutex
	kv     db.KeyValue
	blocks *BlockStorage
	spec   *helpers.SpecHelpers
	cache  map[types.Hash32]BeaconTuple
}

// NewTupleStorage wraps block storage with a state store.
func NewTupleStorage(kv db.KeyValue, blocks *BlockStorage, spec *helpers.SpecHelpers) *TupleStorage {
	return &TupleStorage{
		kv:     kv,
		blocks: blocks,
		spec:   spec,
		cache:  make(map[types.Hash32]BeaconTuple),
	}
}

// Put stores a tuple under its block root.
func (t *TupleStorage) Put(tuple BeaconTuple) types.Hash32 {
	root := t.blocks.Put(tuple.Block)

	t.mu.Lock()
	t.cache[root] = tuple
	t.mu.Unlock()

	if err := t.kv.Put(statesBucket, root[:], db.EncodeValue(tuple.State.State)); err != nil {
		panic(err)
	}
	return root
}

// Get returns the tuple stored under root. States loaded from disk carry
// the Unknown transition tag.
func (t *TupleStorage) Get(root types.Hash32) (BeaconTuple, bool) {
	t.mu.RLock()
	if tuple, ok := t.cache[root]; ok {
		t.mu.RUnlock()
		return tuple, true
	}
	t.mu.RUnlock()

	block, ok := t.blocks.Get(root)
	if !ok {
		return BeaconTuple{}, false
	}
	raw, ok, err := t.kv.Get(statesBucket, root[:])
	if err != nil || !ok {
		return BeaconTuple{}, false
	}
	state := new(types.BeaconState)
	if err := db.DecodeValue(raw, state); err != nil {
		return BeaconTuple{}, false
	}
	return BeaconTuple{
		Block: block,
		State: transition.NewStateEx(state, root, transition.Unknown),
	}, true
}
