package helpers

import (
	"github.com/pkg/errors"

	"github.com/myaccount-club/beacon-chain/types"
)

// BlockLookup resolves a block by its tree-hash root.
type BlockLookup func(root types.Hash32) (*types.BeaconBlock, bool)

// ChildrenLookup resolves the known children of a block.
type ChildrenLookup func(root types.Hash32) []*types.BeaconBlock

// LatestAttestationLookup returns a validator's freshest observed
// attestation, if any.
type LatestAttestationLookup func(pubkey types.BLSPubkey) (*types.Attestation, bool)

// LMDGhost walks the block tree from startBlock, at each step descending
// into the child carrying the greatest cumulative effective balance of
// validators whose latest attestation targets a descendant of that child.
// Ties break on the lexicographically greatest block root.
//
// Spec pseudocode definition (fork choice rule):
//
//	def lmd_ghost(store, start_state, start_block) -> BeaconBlock:
//	  validators = start_state.validator_registry
//	  active = get_active_validator_indices(validators, slot_to_epoch(start_block.slot))
//	  attestation_targets = [(i, get_latest_attestation_target(store, i)) for i in active]
//	  def get_vote_count(block):
//	    return sum(
//	      get_effective_balance(start_state, i)
//	      for i, target in attestation_targets
//	      if get_ancestor(store, target, block.slot) == block
//	    )
//	  head = start_block
//	  while 1:
//	    children = get_children(store, head)
//	    if len(children) == 0: return head
//	    head = max(children, key=get_vote_count)
func (s *SpecHelpers) LMDGhost(
	startBlock *types.BeaconBlock,
	startState *types.BeaconState,
	getBlock BlockLookup,
	getChildren ChildrenLookup,
	latestAttestation LatestAttestationLookup,
) (*types.BeaconBlock, error) {
	if startBlock == nil || startState == nil {
		return nil, errors.New("lmd_ghost requires a start block and state")
	}

	type target struct {
		index types.ValidatorIndex
		root  types.Hash32
	}
	active := ActiveValidatorIndices(startState.ValidatorRegistry, s.SlotToEpoch(startBlock.Slot))
	var targets []target
	for _, i := range active {
		if att, ok := latestAttestation(startState.ValidatorRegistry[i].Pubkey); ok {
			targets = append(targets, target{index: i, root: att.Data.BeaconBlockRoot})
		}
	}

	// ancestorAt walks a vote target up to the given slot.
	ancestorAt := func(root types.Hash32, slot types.Slot) (types.Hash32, bool) {
		for {
			block, ok := getBlock(root)
			if !ok {
				return types.ZeroHash, false
			}
			if block.Slot == slot {
				return root, true
			}
			if block.Slot < slot {
				return types.ZeroHash, false
			}
			root = block.ParentRoot
		}
	}

	voteWeight := func(child *types.BeaconBlock) types.Gwei {
		childRoot := s.HashTreeRoot(child)
		var weight types.Gwei
		for _, t := range targets {
			if ancestor, ok := ancestorAt(t.root, child.Slot); ok && ancestor == childRoot {
				weight += s.EffectiveBalance(startState, t.index)
			}
		}
		return weight
	}

	head := startBlock
	for {
		children := getChildren(s.HashTreeRoot(head))
		if len(children) == 0 {
			return head, nil
		}
		best := children[0]
		bestWeight := voteWeight(best)
		for _, child := range children[1:] {
			w := voteWeight(child)
			if w > bestWeight || (w == bestWeight && s.HashTreeRoot(child).Compare(s.HashTreeRoot(best)) > 0) {
				best, bestWeight = child, w
			}
		}
		head = best
	}
}
