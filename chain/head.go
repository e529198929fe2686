package chain

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/types"
)

// LMDGhostHeadFunction is the fork-choice engine: it caches each
// validator's latest observed attestation and descends the block tree from
// the justified block by cumulative attesting balance.
//
// AddAttestation and GetHead take a coarse lock; they never interleave.
type LMDGhostHeadFunction struct {
	mu sync.Mutex

	blocks *BlockStorage
	tuples *TupleStorage
	spec   *helpers.SpecHelpers

	// recentState resolves attestation participants; it tracks the latest
	// imported tuple's state.
	recentState *types.BeaconState

	attestationCache map[types.BLSPubkey]*types.Attestation
	validatorSlots   map[types.Slot]map[types.BLSPubkey]bool
}

// NewLMDGhostHeadFunction builds the head function over storage.
func NewLMDGhostHeadFunction(blocks *BlockStorage, tuples *TupleStorage, spec *helpers.SpecHelpers) *LMDGhostHeadFunction {
	return &LMDGhostHeadFunction{
		blocks:           blocks,
		tuples:           tuples,
		spec:             spec,
		attestationCache: make(map[types.BLSPubkey]*types.Attestation),
		validatorSlots:   make(map[types.Slot]map[types.BLSPubkey]bool),
	}
}

// OnNewState tracks the freshest state for participant expansion.
func (f *LMDGhostHeadFunction) OnNewState(state *types.BeaconState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recentState = state
}

// AddAttestation records an attestation for every participant. An existing
// entry is replaced only by a strictly newer one; among equal slots the
// first observed wins.
func (f *LMDGhostHeadFunction) AddAttestation(attestation *types.Attestation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.recentState == nil {
		return errors.New("no state to expand attestation participants against")
	}
	participants, err := f.spec.AttestationParticipants(f.recentState, attestation.Data, attestation.AggregationBitfield)
	if err != nil {
		return errors.Wrap(err, "could not expand attestation participants")
	}
	for _, pubkey := range helpers.PubkeysOf(f.recentState, participants) {
		existing, ok := f.attestationCache[pubkey]
		if ok {
			if attestation.Data.Slot <= existing.Data.Slot {
				// Keep the earlier-observed attestation.
				continue
			}
			delete(f.validatorSlots[existing.Data.Slot], pubkey)
		}
		f.attestationCache[pubkey] = attestation
		f.addToSlotIndex(attestation.Data.Slot, pubkey)
	}
	return nil
}

// PurgeAttestations drops every cached attestation at or before slot.
func (f *LMDGhostHeadFunction) PurgeAttestations(slot types.Slot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for s, pubkeys := range f.validatorSlots {
		if s > slot {
			continue
		}
		for pubkey := range pubkeys {
			delete(f.attestationCache, pubkey)
		}
		delete(f.validatorSlots, s)
	}
}

// GetHead runs LMD-GHOST from the justified block. When the new head has
// pulled a full epoch ahead of the justified block, the head is promoted to
// justified and the prior justified block to finalized.
func (f *LMDGhostHeadFunction) GetHead() (*types.BeaconBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	justifiedRoot, ok := f.blocks.JustifiedHead()
	if !ok {
		return nil, errors.New("no justified head found")
	}
	justified, ok := f.tuples.Get(justifiedRoot)
	if !ok {
		return nil, errors.Errorf("no justified tuple found for %s", justifiedRoot)
	}

	newHead, err := f.spec.LMDGhost(
		justified.Block,
		justified.State.State,
		f.blocks.Get,
		f.blocks.Children,
		f.latestAttestation,
	)
	if err != nil {
		return nil, errors.Wrap(err, "fork choice failed")
	}

	if uint64(newHead.Slot-justified.Block.Slot) >= f.spec.Spec().SlotsPerEpoch {
		f.blocks.AddJustifiedHash(f.spec.HashTreeRoot(newHead))
		f.blocks.AddFinalizedHash(justifiedRoot)
	}
	return newHead, nil
}

// latestAttestation returns the cached attestation with the highest slot
// for a validator.
func (f *LMDGhostHeadFunction) latestAttestation(pubkey types.BLSPubkey) (*types.Attestation, bool) {
	attestation, ok := f.attestationCache[pubkey]
	return attestation, ok
}

func (f *LMDGhostHeadFunction) addToSlotIndex(slot types.Slot, pubkey types.BLSPubkey) {
	set, ok := f.validatorSlots[slot]
	if !ok {
		set = make(map[types.BLSPubkey]bool)
		f.validatorSlots[slot] = set
	}
	set[pubkey] = true
}
