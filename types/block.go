package types

import (
	"fmt"
	"sync/atomic"

	"github.com/myaccount-club/beacon-chain/ssz"
)

// BeaconBlockBody carries the operations of a block, each list bounded by
// its per-block constant.
type BeaconBlockBody struct {
	ProposerSlashings []ProposerSlashing
	AttesterSlashings []AttesterSlashing
	Attestations      []Attestation
	Deposits          []Deposit
	VoluntaryExits    []VoluntaryExit
	Transfers         []Transfer
}

// EmptyBody returns a body with no operations.
func EmptyBody() BeaconBlockBody {
	return BeaconBlockBody{}
}

func (b BeaconBlockBody) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteList(len(b.ProposerSlashings), func(e *ssz.Encoder, i int) {
		e.WritePrefixed(b.ProposerSlashings[i].MarshalSSZTo)
	})
	e.WriteList(len(b.AttesterSlashings), func(e *ssz.Encoder, i int) {
		e.WritePrefixed(b.AttesterSlashings[i].MarshalSSZTo)
	})
	e.WriteList(len(b.Attestations), func(e *ssz.Encoder, i int) {
		e.WritePrefixed(b.Attestations[i].MarshalSSZTo)
	})
	e.WriteList(len(b.Deposits), func(e *ssz.Encoder, i int) {
		e.WritePrefixed(b.Deposits[i].MarshalSSZTo)
	})
	e.WriteList(len(b.VoluntaryExits), func(e *ssz.Encoder, i int) {
		e.WritePrefixed(b.VoluntaryExits[i].MarshalSSZTo)
	})
	e.WriteList(len(b.Transfers), func(e *ssz.Encoder, i int) {
		e.WritePrefixed(b.Transfers[i].MarshalSSZTo)
	})
}

func (b *BeaconBlockBody) UnmarshalSSZFrom(d *ssz.Decoder) error {
	b.ProposerSlashings = nil
	if err := d.ReadList(func(d *ssz.Decoder) error {
		var v ProposerSlashing
		if err := d.ReadPrefixed(v.UnmarshalSSZFrom); err != nil {
			return err
		}
		b.ProposerSlashings = append(b.ProposerSlashings, v)
		return nil
	}); err != nil {
		return err
	}
	b.AttesterSlashings = nil
	if err := d.ReadList(func(d *ssz.Decoder) error {
		var v AttesterSlashing
		if err := d.ReadPrefixed(v.UnmarshalSSZFrom); err != nil {
			return err
		}
		b.AttesterSlashings = append(b.AttesterSlashings, v)
		return nil
	}); err != nil {
		return err
	}
	b.Attestations = nil
	if err := d.ReadList(func(d *ssz.Decoder) error {
		var v Attestation
		if err := d.ReadPrefixed(v.UnmarshalSSZFrom); err != nil {
			return err
		}
		b.Attestations = append(b.Attestations, v)
		return nil
	}); err != nil {
		return err
	}
	b.Deposits = nil
	if err := d.ReadList(func(d *ssz.Decoder) error {
		var v Deposit
		if err := d.ReadPrefixed(v.UnmarshalSSZFrom); err != nil {
			return err
		}
		b.Deposits = append(b.Deposits, v)
		return nil
	}); err != nil {
		return err
	}
	b.VoluntaryExits = nil
	if err := d.ReadList(func(d *ssz.Decoder) error {
		var v VoluntaryExit
		if err := d.ReadPrefixed(v.UnmarshalSSZFrom); err != nil {
			return err
		}
		b.VoluntaryExits = append(b.VoluntaryExits, v)
		return nil
	}); err != nil {
		return err
	}
	b.Transfers = nil
	return d.ReadList(func(d *ssz.Decoder) error {
		var v Transfer
		if err := d.ReadPrefixed(v.UnmarshalSSZFrom); err != nil {
			return err
		}
		b.Transfers = append(b.Transfers, v)
		return nil
	})
}

func (b BeaconBlockBody) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	proposerRoots := make([][32]byte, len(b.ProposerSlashings))
	for i, v := range b.ProposerSlashings {
		proposerRoots[i] = v.HashTreeRootWith(h)
	}
	attesterRoots := make([][32]byte, len(b.AttesterSlashings))
	for i, v := range b.AttesterSlashings {
		attesterRoots[i] = v.HashTreeRootWith(h)
	}
	attRoots := make([][32]byte, len(b.Attestations))
	for i, v := range b.Attestations {
		attRoots[i] = v.HashTreeRootWith(h)
	}
	depositRoots := make([][32]byte, len(b.Deposits))
	for i, v := range b.Deposits {
		depositRoots[i] = v.HashTreeRootWith(h)
	}
	exitRoots := make([][32]byte, len(b.VoluntaryExits))
	for i, v := range b.VoluntaryExits {
		exitRoots[i] = v.HashTreeRootWith(h)
	}
	transferRoots := make([][32]byte, len(b.Transfers))
	for i, v := range b.Transfers {
		transferRoots[i] = v.HashTreeRootWith(h)
	}
	return h.ContainerRoot(
		h.ListRoot(proposerRoots),
		h.ListRoot(attesterRoots),
		h.ListRoot(attRoots),
		h.ListRoot(depositRoots),
		h.ListRoot(exitRoots),
		h.ListRoot(transferRoots),
	)
}

// BeaconBlock is a beacon chain block. Blocks are immutable once built; the
// tree-hash root is memoized on first computation.
type BeaconBlock struct {
	Slot         Slot
	ParentRoot   Hash32
	StateRoot    Hash32
	RandaoReveal BLSSignature
	Eth1Data     Eth1Data
	Body         BeaconBlockBody
	Signature    BLSSignature

	root atomic.Pointer[Hash32]
}

// NewBlock builds a block from its fields.
func NewBlock(slot Slot, parentRoot, stateRoot Hash32, randaoReveal BLSSignature,
	eth1Data Eth1Data, body BeaconBlockBody, signature BLSSignature) *BeaconBlock {
	return &BeaconBlock{
		Slot:         slot,
		ParentRoot:   parentRoot,
		StateRoot:    stateRoot,
		RandaoReveal: randaoReveal,
		Eth1Data:     eth1Data,
		Body:         body,
		Signature:    signature,
	}
}

// WithStateRoot returns a copy of the block carrying the given state root.
func (b *BeaconBlock) WithStateRoot(root Hash32) *BeaconBlock {
	return NewBlock(b.Slot, b.ParentRoot, root, b.RandaoReveal, b.Eth1Data, b.Body, b.Signature)
}

// WithSignature returns a copy of the block carrying the given signature.
func (b *BeaconBlock) WithSignature(sig BLSSignature) *BeaconBlock {
	return NewBlock(b.Slot, b.ParentRoot, b.StateRoot, b.RandaoReveal, b.Eth1Data, b.Body, sig)
}

func (b *BeaconBlock) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteUint64(uint64(b.Slot))
	e.WriteFixedBytes(b.ParentRoot[:])
	e.WriteFixedBytes(b.StateRoot[:])
	e.WriteFixedBytes(b.RandaoReveal[:])
	e.WritePrefixed(b.Eth1Data.MarshalSSZTo)
	e.WritePrefixed(b.Body.MarshalSSZTo)
	e.WriteFixedBytes(b.Signature[:])
}

func (b *BeaconBlock) UnmarshalSSZFrom(d *ssz.Decoder) error {
	u, err := d.ReadUint64()
	if err != nil {
		return err
	}
	b.Slot = Slot(u)
	if err = d.ReadFixedBytes(b.ParentRoot[:]); err != nil {
		return err
	}
	if err = d.ReadFixedBytes(b.StateRoot[:]); err != nil {
		return err
	}
	if err = d.ReadFixedBytes(b.RandaoReveal[:]); err != nil {
		return err
	}
	if err = d.ReadPrefixed(b.Eth1Data.UnmarshalSSZFrom); err != nil {
		return err
	}
	if err = d.ReadPrefixed(b.Body.UnmarshalSSZFrom); err != nil {
		return err
	}
	return d.ReadFixedBytes(b.Signature[:])
}

func (b *BeaconBlock) fieldRoots(h *ssz.Hasher) [][32]byte {
	return [][32]byte{
		h.Uint64Root(uint64(b.Slot)),
		b.ParentRoot.HashTreeRootWith(h),
		b.StateRoot.HashTreeRootWith(h),
		b.RandaoReveal.HashTreeRootWith(h),
		b.Eth1Data.HashTreeRootWith(h),
		b.Body.HashTreeRootWith(h),
		b.Signature.HashTreeRootWith(h),
	}
}

// HashTreeRootWith returns the block root, memoized across calls.
func (b *BeaconBlock) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	if cached := b.root.Load(); cached != nil {
		return *cached
	}
	root := Hash32(h.ContainerRoot(b.fieldRoots(h)...))
	b.root.Store(&root)
	return root
}

// SigningRootWith returns the block root with the trailing signature field
// excluded; proposals are signed over this value.
func (b *BeaconBlock) SigningRootWith(h *ssz.Hasher) [32]byte {
	roots := b.fieldRoots(h)
	return h.ContainerRoot(roots[:len(roots)-1]...)
}

func (b *BeaconBlock) String() string {
	return fmt.Sprintf("Block[slot=%d parent=%s state=%s atts=%d deposits=%d]",
		b.Slot, b.ParentRoot.Short(), b.StateRoot.Short(),
		len(b.Body.Attestations), len(b.Body.Deposits))
}
