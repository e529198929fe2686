package helpers

import (
	"github.com/pkg/errors"

	"github.com/myaccount-club/beacon-chain/types"
)

// CrosslinkCommittee is an ordered committee bound to its shard.
type CrosslinkCommittee struct {
	Committee []types.ValidatorIndex
	Shard     types.Shard
}

// epochShuffling returns the epoch's committees: the seeded shuffle of the
// active validators split into EpochCommitteeCount pieces. Results are
// cached per seed.
func (s *SpecHelpers) epochShuffling(state *types.BeaconState, epoch types.Epoch) ([][]types.ValidatorIndex, error) {
	seed, err := s.GenerateSeed(state, epoch)
	if err != nil {
		return nil, err
	}
	if cached, ok := s.shufflingCache.Get(seed); ok {
		return cached.([][]types.ValidatorIndex), nil
	}
	active := ActiveValidatorIndices(state.ValidatorRegistry, epoch)
	if len(active) == 0 {
		return nil, errors.Errorf("no active validators at epoch %d", epoch)
	}
	shuffled := s.shuffleIndices(active, seed)
	committees := splitIndices(shuffled, s.EpochCommitteeCount(uint64(len(active))))
	s.shufflingCache.Add(seed, committees)
	return committees, nil
}

// CrosslinkCommitteesAtSlot returns the ordered (committee, shard) pairs
// assigned to a slot. Committees are disjoint and cover all active
// validators of the slot's epoch; the j-th committee at slot s serves shard
// (s + j) mod SHARD_COUNT, so the first committee's shard equals
// s mod SHARD_COUNT.
func (s *SpecHelpers) CrosslinkCommitteesAtSlot(state *types.BeaconState, slot types.Slot) ([]CrosslinkCommittee, error) {
	epoch := s.SlotToEpoch(slot)
	current := s.CurrentEpoch(state)
	if epoch > current+1 || (current > 0 && epoch+1 < current) {
		return nil, errors.Errorf("slot %d is out of the committee window of epoch %d", slot, current)
	}
	shuffling, err := s.epochShuffling(state, epoch)
	if err != nil {
		return nil, err
	}
	committeesPerSlot := uint64(len(shuffling)) / s.cfg.SlotsPerEpoch
	offset := uint64(slot) % s.cfg.SlotsPerEpoch
	out := make([]CrosslinkCommittee, 0, committeesPerSlot)
	for j := uint64(0); j < committeesPerSlot; j++ {
		out = append(out, CrosslinkCommittee{
			Committee: shuffling[offset*committeesPerSlot+j],
			Shard:     types.Shard((uint64(slot) + j) % s.cfg.ShardCount),
		})
	}
	return out, nil
}

// CommitteeAtShard returns the committee serving the given shard at a slot.
// The beacon-chain shard number resolves to the first committee.
func (s *SpecHelpers) CommitteeAtShard(state *types.BeaconState, slot types.Slot, shard types.Shard) ([]types.ValidatorIndex, error) {
	committees, err := s.CrosslinkCommitteesAtSlot(state, slot)
	if err != nil {
		return nil, err
	}
	if uint64(shard) == s.cfg.BeaconChainShardNumber {
		return committees[0].Committee, nil
	}
	for _, c := range committees {
		if c.Shard == shard {
			return c.Committee, nil
		}
	}
	return nil, errors.Errorf("no committee for shard %d at slot %d", shard, slot)
}

// BeaconProposerIndex returns the proposer of a slot: the first index of
// the committee whose shard equals slot mod SHARD_COUNT.
func (s *SpecHelpers) BeaconProposerIndex(state *types.BeaconState, slot types.Slot) (types.ValidatorIndex, error) {
	committees, err := s.CrosslinkCommitteesAtSlot(state, slot)
	if err != nil {
		return 0, err
	}
	want := types.Shard(uint64(slot) % s.cfg.ShardCount)
	for _, c := range committees {
		if c.Shard == want && len(c.Committee) > 0 {
			return c.Committee[0], nil
		}
	}
	return 0, errors.Errorf("no proposer committee at slot %d", slot)
}

// VerifyBitfield checks that a bitfield covers exactly committeeSize bits:
// ceil(committeeSize/8) bytes with no excess bit set.
func VerifyBitfield(bitfield types.Bitfield, committeeSize int) bool {
	if len(bitfield) != types.BitfieldSize(committeeSize) {
		return false
	}
	return !bitfield.HasExcessBits(committeeSize)
}

// AttestationParticipants expands an aggregation bitfield into the
// validator indices it selects, preserving committee order.
func (s *SpecHelpers) AttestationParticipants(state *types.BeaconState, data types.AttestationData, bitfield types.Bitfield) ([]types.ValidatorIndex, error) {
	committee, err := s.CommitteeAtShard(state, data.Slot, data.Shard)
	if err != nil {
		return nil, err
	}
	if !VerifyBitfield(bitfield, len(committee)) {
		return nil, errors.Errorf("bitfield of %d bytes does not match committee size %d", len(bitfield), len(committee))
	}
	var participants []types.ValidatorIndex
	for i, index := range committee {
		if bitfield.BitAt(i) {
			participants = append(participants, index)
		}
	}
	return participants, nil
}
