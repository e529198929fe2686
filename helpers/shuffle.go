package helpers

import (
	"encoding/binary"

	"github.com/myaccount-club/beacon-chain/types"
)

// permutedIndex runs the swap-or-not shuffle for a single index.
//
// Spec pseudocode definition:
//
//	def get_permuted_index(index, list_size, seed) -> int:
//	  for round in range(SHUFFLE_ROUND_COUNT):
//	    pivot = bytes_to_int(hash(seed + int_to_bytes1(round))[0:8]) % list_size
//	    flip = (pivot - index) % list_size
//	    position = max(index, flip)
//	    source = hash(seed + int_to_bytes1(round) + int_to_bytes4(position // 256))
//	    byte = source[(position % 256) // 8]
//	    bit = (byte >> (position % 8)) % 2
//	    index = flip if bit else index
func (s *SpecHelpers) permutedIndex(index, listSize uint64, seed types.Hash32) uint64 {
	for round := uint8(0); round < s.cfg.ShuffleRoundCount; round++ {
		pivotInput := make([]byte, 33)
		copy(pivotInput, seed[:])
		pivotInput[32] = round
		pivotHash := s.hashFn(pivotInput)
		pivot := binary.LittleEndian.Uint64(pivotHash[:8]) % listSize

		// (pivot - index) mod listSize without underflow.
		flip := (pivot + listSize - index%listSize) % listSize
		position := index
		if flip > position {
			position = flip
		}

		sourceInput := make([]byte, 37)
		copy(sourceInput, seed[:])
		sourceInput[32] = round
		binary.LittleEndian.PutUint32(sourceInput[33:], uint32(position/256))
		source := s.hashFn(sourceInput)
		byteV := source[(position%256)/8]
		if (byteV>>(position%8))&1 == 1 {
			index = flip
		}
	}
	return index
}

// shuffleIndices permutes the given index list under seed.
func (s *SpecHelpers) shuffleIndices(indices []types.ValidatorIndex, seed types.Hash32) []types.ValidatorIndex {
	n := uint64(len(indices))
	out := make([]types.ValidatorIndex, n)
	for i := uint64(0); i < n; i++ {
		out[s.permutedIndex(i, n, seed)] = indices[i]
	}
	return out
}

// splitIndices splits a list into n contiguous pieces whose lengths differ
// by at most one; piece i spans [len*i/n, len*(i+1)/n).
func splitIndices(l []types.ValidatorIndex, n uint64) [][]types.ValidatorIndex {
	divided := make([][]types.ValidatorIndex, n)
	size := uint64(len(l))
	for i := uint64(0); i < n; i++ {
		start := size * i / n
		end := size * (i + 1) / n
		divided[i] = l[start:end]
	}
	return divided
}

// EpochCommitteeCount returns the number of committees formed in one epoch
// for the given active validator count.
//
// Spec pseudocode definition:
//
//	def get_epoch_committee_count(active_validator_count) -> int:
//	  return max(1, min(
//	    SHARD_COUNT // SLOTS_PER_EPOCH,
//	    active_validator_count // SLOTS_PER_EPOCH // TARGET_COMMITTEE_SIZE,
//	  )) * SLOTS_PER_EPOCH
func (s *SpecHelpers) EpochCommitteeCount(activeValidatorCount uint64) uint64 {
	perSlot := activeValidatorCount / s.cfg.SlotsPerEpoch / s.cfg.TargetCommitteeSize
	if limit := s.cfg.ShardCount / s.cfg.SlotsPerEpoch; perSlot > limit {
		perSlot = limit
	}
	if perSlot < 1 {
		perSlot = 1
	}
	return perSlot * s.cfg.SlotsPerEpoch
}
