package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/myaccount-club/beacon-chain/types"
)

// treeFixture builds a tiny fork: genesis <- b1 <- b2a, b2b.
type treeFixture struct {
	spec   *SpecHelpers
	blocks map[types.Hash32]*types.BeaconBlock
	byName map[string]*types.BeaconBlock
}

func newTreeFixture(s *SpecHelpers) *treeFixture {
	f := &treeFixture{
		spec:   s,
		blocks: make(map[types.Hash32]*types.BeaconBlock),
		byName: make(map[string]*types.BeaconBlock),
	}
	genesis := f.add("genesis", 0, types.ZeroHash)
	b1 := f.add("b1", 1, f.root(genesis))
	f.add("b2a", 2, f.root(b1))
	f.add("b2b", 2, f.root(b1))
	return f
}

func (f *treeFixture) add(name string, slot types.Slot, parent types.Hash32) *types.BeaconBlock {
	block := types.NewBlock(slot, parent, types.Hash32{byte(len(f.blocks) + 1)}, types.EmptySignature,
		types.Eth1Data{}, types.EmptyBody(), types.EmptySignature)
	f.blocks[f.root(block)] = block
	f.byName[name] = block
	return block
}

func (f *treeFixture) root(b *types.BeaconBlock) types.Hash32 {
	return f.spec.HashTreeRoot(b)
}

func (f *treeFixture) getBlock(root types.Hash32) (*types.BeaconBlock, bool) {
	b, ok := f.blocks[root]
	return b, ok
}

func (f *treeFixture) getChildren(root types.Hash32) []*types.BeaconBlock {
	var children []*types.BeaconBlock
	for name := range map[string]bool{"genesis": true, "b1": true, "b2a": true, "b2b": true} {
		b := f.byName[name]
		if b.ParentRoot == root {
			children = append(children, b)
		}
	}
	// Deterministic order.
	for i := 0; i < len(children); i++ {
		for j := i + 1; j < len(children); j++ {
			if f.root(children[j]).Compare(f.root(children[i])) < 0 {
				children[i], children[j] = children[j], children[i]
			}
		}
	}
	return children
}

func TestLMDGhostFollowsWeight(t *testing.T) {
	s := minimalHelpers()
	state := stateWithValidators(s.Spec(), 3)
	f := newTreeFixture(s)

	// Two validators vote b2a, one votes b2b.
	votes := map[types.BLSPubkey]*types.Attestation{
		state.ValidatorRegistry[0].Pubkey: {Data: types.AttestationData{Slot: 2, BeaconBlockRoot: f.root(f.byName["b2a"])}},
		state.ValidatorRegistry[1].Pubkey: {Data: types.AttestationData{Slot: 2, BeaconBlockRoot: f.root(f.byName["b2a"])}},
		state.ValidatorRegistry[2].Pubkey: {Data: types.AttestationData{Slot: 2, BeaconBlockRoot: f.root(f.byName["b2b"])}},
	}
	latest := func(pubkey types.BLSPubkey) (*types.Attestation, bool) {
		a, ok := votes[pubkey]
		return a, ok
	}

	head, err := s.LMDGhost(f.byName["genesis"], state, f.getBlock, f.getChildren, latest)
	require.NoError(t, err)
	require.Equal(t, f.root(f.byName["b2a"]), f.root(head))
}

func TestLMDGhostTieBreaksOnHash(t *testing.T) {
	s := minimalHelpers()
	state := stateWithValidators(s.Spec(), 2)
	f := newTreeFixture(s)

	// One vote each: the lexicographically greater root wins.
	votes := map[types.BLSPubkey]*types.Attestation{
		state.ValidatorRegistry[0].Pubkey: {Data: types.AttestationData{Slot: 2, BeaconBlockRoot: f.root(f.byName["b2a"])}},
		state.ValidatorRegistry[1].Pubkey: {Data: types.AttestationData{Slot: 2, BeaconBlockRoot: f.root(f.byName["b2b"])}},
	}
	latest := func(pubkey types.BLSPubkey) (*types.Attestation, bool) {
		a, ok := votes[pubkey]
		return a, ok
	}

	head, err := s.LMDGhost(f.byName["genesis"], state, f.getBlock, f.getChildren, latest)
	require.NoError(t, err)

	expected := f.root(f.byName["b2a"])
	if f.root(f.byName["b2b"]).Compare(expected) > 0 {
		expected = f.root(f.byName["b2b"])
	}
	require.Equal(t, expected, f.root(head))
}

func TestLMDGhostNoVotesReturnsDeepestByHash(t *testing.T) {
	s := minimalHelpers()
	state := stateWithValidators(s.Spec(), 1)
	f := newTreeFixture(s)

	latest := func(types.BLSPubkey) (*types.Attestation, bool) { return nil, false }
	head, err := s.LMDGhost(f.byName["genesis"], state, f.getBlock, f.getChildren, latest)
	require.NoError(t, err)
	require.Equal(t, types.Slot(2), head.Slot)

	// Deterministic across calls.
	again, err := s.LMDGhost(f.byName["genesis"], state, f.getBlock, f.getChildren, latest)
	require.NoError(t, err)
	require.Equal(t, f.root(head), f.root(again))
}
