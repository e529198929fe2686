// Package chain implements block and tuple storage over the byte-level
// key-value store, the LMD-GHOST head function and the block insertion
// path.
package chain

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/myaccount-club/beacon-chain/db"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/types"
)

var (
	blocksBucket    = []byte("blocks")
	slotIndexBucket = []byte("slot-index")
	marksBucket     = []byte("marks")

	maxSlotKey         = []byte("max-slot")
	latestJustifiedKey = []byte("latest-justified")
	latestFinalizedKey = []byte("latest-finalized")
)

// noCanonical marks a slot without a canonical block.
const noCanonical = int32(-1)

// SlotBlocks is the slot-index entry: the ordered block hashes observed at
// a slot and which of them, if any, is canonical.
type SlotBlocks struct {
	Hashes         []types.Hash32
	CanonicalIndex int32
}

// CanonicalHash returns the canonical hash at this slot, if marked.
func (sb SlotBlocks) CanonicalHash() (types.Hash32, bool) {
	if sb.CanonicalIndex == noCanonical || int(sb.CanonicalIndex) >= len(sb.Hashes) {
		return types.ZeroHash, false
	}
	return sb.Hashes[sb.CanonicalIndex], true
}

func (sb SlotBlocks) encode() []byte {
	buf := make([]byte, 4+len(sb.Hashes)*32)
	binary.LittleEndian.PutUint32(buf[:4], uint32(sb.CanonicalIndex))
	for i, h := range sb.Hashes {
		copy(buf[4+i*32:], h[:])
	}
	return buf
}

func decodeSlotBlocks(data []byte) (SlotBlocks, error) {
	if len(data) < 4 || (len(data)-4)%32 != 0 {
		return SlotBlocks{}, errors.New("malformed slot index entry")
	}
	sb := SlotBlocks{CanonicalIndex: int32(binary.LittleEndian.Uint32(data[:4]))}
	for off := 4; off < len(data); off += 32 {
		var h types.Hash32
		copy(h[:], data[off:off+32])
		sb.Hashes = append(sb.Hashes, h)
	}
	return sb, nil
}

// BlockStorage is the append-only hash-to-block map with its slot-indexed
// secondary structure carrying canonical, justified and finalized marks.
// Writers must be serialized by the caller; reads are safe concurrently
// with each other.
type BlockStorage struct {
	mu   sync.RWMutex
	kv   db.KeyValue
	spec *helpers.SpecHelpers
}

// NewBlockStorage wraps a key-value store.
func NewBlockStorage(kv db.KeyValue, spec *helpers.SpecHelpers) *BlockStorage {
	return &BlockStorage{kv: kv, spec: spec}
}

func slotKey(slot types.Slot) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(slot))
	return b[:]
}

// Get returns the block stored under root.
func (s *BlockStorage) Get(root types.Hash32) (*types.BeaconBlock, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(root)
}

func (s *BlockStorage) getLocked(root types.Hash32) (*types.BeaconBlock, bool) {
	raw, ok, err := s.kv.Get(blocksBucket, root[:])
	if err != nil || !ok {
		return nil, false
	}
	block := new(types.BeaconBlock)
	if err := db.DecodeValue(raw, block); err != nil {
		panic(errors.Wrapf(err, "stored block %s is corrupt", root))
	}
	return block, true
}

// Put stores a block under its tree-hash root, idempotently, and appends
// its hash to the slot index. The first block ever stored becomes the
// canonical, justified and finalized genesis.
func (s *BlockStorage) Put(block *types.BeaconBlock) types.Hash32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	root := s.spec.HashTreeRoot(block)
	if _, exists := s.getLocked(root); exists {
		return root
	}
	genesisInit := s.isEmptyLocked()

	s.mustPut(blocksBucket, root[:], db.EncodeValue(block))

	sb := s.slotBlocksLocked(block.Slot)
	sb.Hashes = append(sb.Hashes, root)
	if len(sb.Hashes) == 1 && genesisInit {
		sb.CanonicalIndex = 0
	} else if len(sb.Hashes) == 1 {
		sb.CanonicalIndex = noCanonical
	}
	s.mustPut(slotIndexBucket, slotKey(block.Slot), sb.encode())

	if max, ok := s.maxSlotLocked(); !ok || block.Slot > max {
		s.mustPut(marksBucket, maxSlotKey, slotKey(block.Slot))
	}

	if genesisInit {
		s.reorgToLocked(root)
		s.setMarkLocked(latestJustifiedKey, root)
		s.setMarkLocked(latestFinalizedKey, root)
	}
	return root
}

// Remove deletes a non-canonical block. Removing a canonical block is an
// invariant violation and panics.
func (s *BlockStorage) Remove(root types.Hash32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	block, ok := s.getLocked(root)
	if !ok {
		return
	}
	sb := s.slotBlocksLocked(block.Slot)
	idx := -1
	for i, h := range sb.Hashes {
		if h == root {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	if int(sb.CanonicalIndex) == idx {
		panic(fmt.Sprintf("attempted to remove canonical block: %d: %s", block.Slot, root))
	}
	if sb.CanonicalIndex > int32(idx) {
		sb.CanonicalIndex--
	}
	sb.Hashes = append(sb.Hashes[:idx], sb.Hashes[idx+1:]...)
	s.mustPut(slotIndexBucket, slotKey(block.Slot), sb.encode())
	if err := s.kv.Delete(blocksBucket, root[:]); err != nil {
		panic(errors.Wrap(err, "could not delete block"))
	}
}

// SlotBlocks returns the slot-index entry for a slot.
func (s *BlockStorage) SlotBlocks(slot types.Slot) SlotBlocks {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slotBlocksLocked(slot)
}

// SlotCanonicalBlock returns the canonical hash at a slot, if any.
func (s *BlockStorage) SlotCanonicalBlock(slot types.Slot) (types.Hash32, bool) {
	return s.SlotBlocks(slot).CanonicalHash()
}

// MaxSlot returns the highest slot with a stored block.
func (s *BlockStorage) MaxSlot() (types.Slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSlotLocked()
}

// CanonicalHead returns the canonical hash at the highest marked slot.
func (s *BlockStorage) CanonicalHead() (types.Hash32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max, ok := s.maxSlotLocked()
	if !ok {
		return types.ZeroHash, errors.New("storage is empty")
	}
	genesis := types.Slot(s.spec.Spec().GenesisSlot)
	for slot := max; ; slot-- {
		if hash, ok := s.slotBlocksLocked(slot).CanonicalHash(); ok {
			return hash, nil
		}
		if slot == genesis {
			break
		}
	}
	return types.ZeroHash, errors.New("at least the genesis head should exist")
}

// ReorgTo walks ancestors from newCanonical, marking each slot's canonical
// index, until it reaches a slot already canonical for the walked ancestor.
func (s *BlockStorage) ReorgTo(newCanonical types.Hash32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reorgToLocked(newCanonical)
}

func (s *BlockStorage) reorgToLocked(newCanonical types.Hash32) error {
	max, ok := s.maxSlotLocked()
	if !ok {
		return errors.New("cannot reorg an empty storage")
	}
	genesis := types.Slot(s.spec.Spec().GenesisSlot)
	current := newCanonical
	for slot := max; ; slot-- {
		sb := s.slotBlocksLocked(slot)
		if len(sb.Hashes) > 0 {
			if existing, ok := sb.CanonicalHash(); ok && existing == current {
				break
			}
			newIdx := noCanonical
			for i, h := range sb.Hashes {
				if h == current {
					newIdx = int32(i)
					break
				}
			}
			if newIdx != sb.CanonicalIndex {
				sb.CanonicalIndex = newIdx
				s.mustPut(slotIndexBucket, slotKey(slot), sb.encode())
			}
			if newIdx != noCanonical {
				block, ok := s.getLocked(current)
				if !ok {
					return errors.Errorf("cannot reorg to missing block %s", current)
				}
				current = block.ParentRoot
			}
		}
		if slot == genesis {
			break
		}
	}
	return nil
}

// Children returns the stored blocks whose parent is root, ordered by slot
// then insertion.
func (s *BlockStorage) Children(root types.Hash32) []*types.BeaconBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parent, ok := s.getLocked(root)
	if !ok {
		return nil
	}
	max, hasMax := s.maxSlotLocked()
	if !hasMax {
		return nil
	}
	var children []*types.BeaconBlock
	for slot := parent.Slot + 1; slot <= max; slot++ {
		for _, h := range s.slotBlocksLocked(slot).Hashes {
			if block, ok := s.getLocked(h); ok && block.ParentRoot == root {
				children = append(children, block)
			}
		}
	}
	return children
}

// AddJustifiedHash records a new justified block.
func (s *BlockStorage) AddJustifiedHash(root types.Hash32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setMarkLocked(latestJustifiedKey, root)
}

// AddFinalizedHash records a new finalized block.
func (s *BlockStorage) AddFinalizedHash(root types.Hash32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setMarkLocked(latestFinalizedKey, root)
}

// JustifiedHead returns the latest justified block hash.
func (s *BlockStorage) JustifiedHead() (types.Hash32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.markLocked(latestJustifiedKey)
}

// FinalizedHead returns the latest finalized block hash.
func (s *BlockStorage) FinalizedHead() (types.Hash32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.markLocked(latestFinalizedKey)
}

func (s *BlockStorage) slotBlocksLocked(slot types.Slot) SlotBlocks {
	raw, ok, err := s.kv.Get(slotIndexBucket, slotKey(slot))
	if err != nil || !ok {
		return SlotBlocks{CanonicalIndex: noCanonical}
	}
	sb, err := decodeSlotBlocks(raw)
	if err != nil {
		panic(errors.Wrapf(err, "slot index entry %d is corrupt", slot))
	}
	return sb
}

func (s *BlockStorage) maxSlotLocked() (types.Slot, bool) {
	raw, ok, err := s.kv.Get(marksBucket, maxSlotKey)
	if err != nil || !ok {
		return 0, false
	}
	return types.Slot(binary.BigEndian.Uint64(raw)), true
}

func (s *BlockStorage) isEmptyLocked() bool {
	_, ok := s.maxSlotLocked()
	return !ok
}

func (s *BlockStorage) setMarkLocked(key []byte, root types.Hash32) {
	s.mustPut(marksBucket, key, root[:])
}

func (s *BlockStorage) markLocked(key []byte) (types.Hash32, bool) {
	raw, ok, err := s.kv.Get(marksBucket, key)
	if err != nil || !ok || len(raw) != 32 {
		return types.ZeroHash, false
	}
	var h types.Hash32
	copy(h[:], raw)
	return h, true
}

func (s *BlockStorage) mustPut(bucket, key, value []byte) {
	if err := s.kv.Put(bucket, key, value); err != nil {
		panic(errors.Wrap(err, "storage write failed"))
	}
}
