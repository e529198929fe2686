package types

import (
	"fmt"

	"github.com/myaccount-club/beacon-chain/ssz"
)

// AttestationData is the vote payload shared by a whole committee.
type AttestationData struct {
	Slot               Slot
	Shard              Shard
	BeaconBlockRoot    Hash32
	EpochBoundaryRoot  Hash32
	CrosslinkDataRoot  Hash32
	LatestCrosslink    Crosslink
	JustifiedEpoch     Epoch
	JustifiedBlockRoot Hash32
}

func (a AttestationData) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteUint64(uint64(a.Slot))
	e.WriteUint64(uint64(a.Shard))
	e.WriteFixedBytes(a.BeaconBlockRoot[:])
	e.WriteFixedBytes(a.EpochBoundaryRoot[:])
	e.WriteFixedBytes(a.CrosslinkDataRoot[:])
	e.WritePrefixed(a.LatestCrosslink.MarshalSSZTo)
	e.WriteUint64(uint64(a.JustifiedEpoch))
	e.WriteFixedBytes(a.JustifiedBlockRoot[:])
}

func (a *AttestationData) UnmarshalSSZFrom(d *ssz.Decoder) error {
	var u uint64
	var err error
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	a.Slot = Slot(u)
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	a.Shard = Shard(u)
	if err = d.ReadFixedBytes(a.BeaconBlockRoot[:]); err != nil {
		return err
	}
	if err = d.ReadFixedBytes(a.EpochBoundaryRoot[:]); err != nil {
		return err
	}
	if err = d.ReadFixedBytes(a.CrosslinkDataRoot[:]); err != nil {
		return err
	}
	if err = d.ReadPrefixed(a.LatestCrosslink.UnmarshalSSZFrom); err != nil {
		return err
	}
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	a.JustifiedEpoch = Epoch(u)
	return d.ReadFixedBytes(a.JustifiedBlockRoot[:])
}

func (a AttestationData) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		h.Uint64Root(uint64(a.Slot)),
		h.Uint64Root(uint64(a.Shard)),
		a.BeaconBlockRoot.HashTreeRootWith(h),
		a.EpochBoundaryRoot.HashTreeRootWith(h),
		a.CrosslinkDataRoot.HashTreeRootWith(h),
		a.LatestCrosslink.HashTreeRootWith(h),
		h.Uint64Root(uint64(a.JustifiedEpoch)),
		a.JustifiedBlockRoot.HashTreeRootWith(h),
	)
}

func (a AttestationData) String() string {
	return fmt.Sprintf("AttestationData[slot=%d shard=%d block=%s]",
		a.Slot, a.Shard, a.BeaconBlockRoot.Short())
}

// AttestationDataAndCustodyBit is the signed attestation message.
type AttestationDataAndCustodyBit struct {
	Data       AttestationData
	CustodyBit bool
}

func (a AttestationDataAndCustodyBit) MarshalSSZTo(e *ssz.Encoder) {
	e.WritePrefixed(a.Data.MarshalSSZTo)
	e.WriteBool(a.CustodyBit)
}

func (a *AttestationDataAndCustodyBit) UnmarshalSSZFrom(d *ssz.Decoder) error {
	if err := d.ReadPrefixed(a.Data.UnmarshalSSZFrom); err != nil {
		return err
	}
	var err error
	a.CustodyBit, err = d.ReadBool()
	return err
}

func (a AttestationDataAndCustodyBit) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		a.Data.HashTreeRootWith(h),
		h.BoolRoot(a.CustodyBit),
	)
}

// Attestation is an aggregated committee vote.
type Attestation struct {
	AggregationBitfield Bitfield
	Data                AttestationData
	CustodyBitfield     Bitfield
	AggregateSignature  BLSSignature
}

func (a Attestation) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteVarBytes(a.AggregationBitfield)
	e.WritePrefixed(a.Data.MarshalSSZTo)
	e.WriteVarBytes(a.CustodyBitfield)
	e.WriteFixedBytes(a.AggregateSignature[:])
}

func (a *Attestation) UnmarshalSSZFrom(d *ssz.Decoder) error {
	var err error
	var b []byte
	if b, err = d.ReadVarBytes(); err != nil {
		return err
	}
	a.AggregationBitfield = Bitfield(b)
	if err = d.ReadPrefixed(a.Data.UnmarshalSSZFrom); err != nil {
		return err
	}
	if b, err = d.ReadVarBytes(); err != nil {
		return err
	}
	a.CustodyBitfield = Bitfield(b)
	return d.ReadFixedBytes(a.AggregateSignature[:])
}

func (a Attestation) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		h.VarBytesRoot(a.AggregationBitfield),
		a.Data.HashTreeRootWith(h),
		h.VarBytesRoot(a.CustodyBitfield),
		a.AggregateSignature.HashTreeRootWith(h),
	)
}

func (a Attestation) String() string {
	return fmt.Sprintf("Attestation[slot=%d shard=%d bits=%s]",
		a.Data.Slot, a.Data.Shard, a.AggregationBitfield)
}

// PendingAttestationRecord is an attestation retained in state until epoch
// processing consumes it.
type PendingAttestationRecord struct {
	AggregationBitfield Bitfield
	Data                AttestationData
	CustodyBitfield     Bitfield
	InclusionSlot       Slot
}

func (p PendingAttestationRecord) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteVarBytes(p.AggregationBitfield)
	e.WritePrefixed(p.Data.MarshalSSZTo)
	e.WriteVarBytes(p.CustodyBitfield)
	e.WriteUint64(uint64(p.InclusionSlot))
}

func (p *PendingAttestationRecord) UnmarshalSSZFrom(d *ssz.Decoder) error {
	var err error
	var b []byte
	if b, err = d.ReadVarBytes(); err != nil {
		return err
	}
	p.AggregationBitfield = Bitfield(b)
	if err = d.ReadPrefixed(p.Data.UnmarshalSSZFrom); err != nil {
		return err
	}
	if b, err = d.ReadVarBytes(); err != nil {
		return err
	}
	p.CustodyBitfield = Bitfield(b)
	u, err := d.ReadUint64()
	p.InclusionSlot = Slot(u)
	return err
}

func (p PendingAttestationRecord) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		h.VarBytesRoot(p.AggregationBitfield),
		p.Data.HashTreeRootWith(h),
		h.VarBytesRoot(p.CustodyBitfield),
		h.Uint64Root(uint64(p.InclusionSlot)),
	)
}

// SlashableAttestation carries the explicit participant list used by
// attester slashings.
type SlashableAttestation struct {
	ValidatorIndices   []ValidatorIndex
	Data               AttestationData
	CustodyBitfield    Bitfield
	AggregateSignature BLSSignature
}

func (s SlashableAttestation) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteList(len(s.ValidatorIndices), func(e *ssz.Encoder, i int) {
		e.WriteUint64(uint64(s.ValidatorIndices[i]))
	})
	e.WritePrefixed(s.Data.MarshalSSZTo)
	e.WriteVarBytes(s.CustodyBitfield)
	e.WriteFixedBytes(s.AggregateSignature[:])
}

func (s *SlashableAttestation) UnmarshalSSZFrom(d *ssz.Decoder) error {
	s.ValidatorIndices = nil
	if err := d.ReadList(func(d *ssz.Decoder) error {
		u, err := d.ReadUint64()
		s.ValidatorIndices = append(s.ValidatorIndices, ValidatorIndex(u))
		return err
	}); err != nil {
		return err
	}
	if err := d.ReadPrefixed(s.Data.UnmarshalSSZFrom); err != nil {
		return err
	}
	b, err := d.ReadVarBytes()
	if err != nil {
		return err
	}
	s.CustodyBitfield = Bitfield(b)
	return d.ReadFixedBytes(s.AggregateSignature[:])
}

func (s SlashableAttestation) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	indexRoots := make([][32]byte, len(s.ValidatorIndices))
	for i, v := range s.ValidatorIndices {
		indexRoots[i] = h.Uint64Root(uint64(v))
	}
	return h.ContainerRoot(
		h.ListRoot(indexRoots),
		s.Data.HashTreeRootWith(h),
		h.VarBytesRoot(s.CustodyBitfield),
		s.AggregateSignature.HashTreeRootWith(h),
	)
}
