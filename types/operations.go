package types

import "github.com/myaccount-club/beacon-chain/ssz"

// ProposalSignedData is the message a proposer signs over a block proposal.
type ProposalSignedData struct {
	Slot      Slot
	Shard     Shard
	BlockRoot Hash32
}

func (p ProposalSignedData) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteUint64(uint64(p.Slot))
	e.WriteUint64(uint64(p.Shard))
	e.WriteFixedBytes(p.BlockRoot[:])
}

func (p *ProposalSignedData) UnmarshalSSZFrom(d *ssz.Decoder) error {
	var u uint64
	var err error
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	p.Slot = Slot(u)
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	p.Shard = Shard(u)
	return d.ReadFixedBytes(p.BlockRoot[:])
}

func (p ProposalSignedData) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		h.Uint64Root(uint64(p.Slot)),
		h.Uint64Root(uint64(p.Shard)),
		p.BlockRoot.HashTreeRootWith(h),
	)
}

// ProposerSlashing evidences two conflicting proposals signed by the same
// proposer.
type ProposerSlashing struct {
	ProposerIndex ValidatorIndex
	Proposal1     ProposalSignedData
	Signature1    BLSSignature
	Proposal2     ProposalSignedData
	Signature2    BLSSignature
}

func (p ProposerSlashing) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteUint64(uint64(p.ProposerIndex))
	e.WritePrefixed(p.Proposal1.MarshalSSZTo)
	e.WriteFixedBytes(p.Signature1[:])
	e.WritePrefixed(p.Proposal2.MarshalSSZTo)
	e.WriteFixedBytes(p.Signature2[:])
}

func (p *ProposerSlashing) UnmarshalSSZFrom(d *ssz.Decoder) error {
	u, err := d.ReadUint64()
	if err != nil {
		return err
	}
	p.ProposerIndex = ValidatorIndex(u)
	if err = d.ReadPrefixed(p.Proposal1.UnmarshalSSZFrom); err != nil {
		return err
	}
	if err = d.ReadFixedBytes(p.Signature1[:]); err != nil {
		return err
	}
	if err = d.ReadPrefixed(p.Proposal2.UnmarshalSSZFrom); err != nil {
		return err
	}
	return d.ReadFixedBytes(p.Signature2[:])
}

func (p ProposerSlashing) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		h.Uint64Root(uint64(p.ProposerIndex)),
		p.Proposal1.HashTreeRootWith(h),
		p.Signature1.HashTreeRootWith(h),
		p.Proposal2.HashTreeRootWith(h),
		p.Signature2.HashTreeRootWith(h),
	)
}

// AttesterSlashing evidences two conflicting slashable attestations.
type AttesterSlashing struct {
	SlashableAttestation1 SlashableAttestation
	SlashableAttestation2 SlashableAttestation
}

func (a AttesterSlashing) MarshalSSZTo(e *ssz.Encoder) {
	e.WritePrefixed(a.SlashableAttestation1.MarshalSSZTo)
	e.WritePrefixed(a.SlashableAttestation2.MarshalSSZTo)
}

func (a *AttesterSlashing) UnmarshalSSZFrom(d *ssz.Decoder) error {
	if err := d.ReadPrefixed(a.SlashableAttestation1.UnmarshalSSZFrom); err != nil {
		return err
	}
	return d.ReadPrefixed(a.SlashableAttestation2.UnmarshalSSZFrom)
}

func (a AttesterSlashing) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		a.SlashableAttestation1.HashTreeRootWith(h),
		a.SlashableAttestation2.HashTreeRootWith(h),
	)
}

// DepositInput is the validator-supplied part of a deposit.
type DepositInput struct {
	Pubkey                BLSPubkey
	WithdrawalCredentials Hash32
	ProofOfPossession     BLSSignature
}

func (di DepositInput) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteFixedBytes(di.Pubkey[:])
	e.WriteFixedBytes(di.WithdrawalCredentials[:])
	e.WriteFixedBytes(di.ProofOfPossession[:])
}

func (di *DepositInput) UnmarshalSSZFrom(d *ssz.Decoder) error {
	if err := d.ReadFixedBytes(di.Pubkey[:]); err != nil {
		return err
	}
	if err := d.ReadFixedBytes(di.WithdrawalCredentials[:]); err != nil {
		return err
	}
	return d.ReadFixedBytes(di.ProofOfPossession[:])
}

func (di DepositInput) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		di.Pubkey.HashTreeRootWith(h),
		di.WithdrawalCredentials.HashTreeRootWith(h),
		di.ProofOfPossession.HashTreeRootWith(h),
	)
}

// SigningRootWith is the proof-of-possession message: the input hashed with
// the signature field excluded.
func (di DepositInput) SigningRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		di.Pubkey.HashTreeRootWith(h),
		di.WithdrawalCredentials.HashTreeRootWith(h),
	)
}

// DepositData wraps the deposit input with its amount and timestamp.
type DepositData struct {
	Amount       Gwei
	Timestamp    uint64
	DepositInput DepositInput
}

func (dd DepositData) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteUint64(uint64(dd.Amount))
	e.WriteUint64(dd.Timestamp)
	e.WritePrefixed(dd.DepositInput.MarshalSSZTo)
}

func (dd *DepositData) UnmarshalSSZFrom(d *ssz.Decoder) error {
	u, err := d.ReadUint64()
	if err != nil {
		return err
	}
	dd.Amount = Gwei(u)
	if dd.Timestamp, err = d.ReadUint64(); err != nil {
		return err
	}
	return d.ReadPrefixed(dd.DepositInput.UnmarshalSSZFrom)
}

func (dd DepositData) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		h.Uint64Root(uint64(dd.Amount)),
		h.Uint64Root(dd.Timestamp),
		dd.DepositInput.HashTreeRootWith(h),
	)
}

// Deposit proves inclusion of deposit data in the deposit contract tree.
type Deposit struct {
	Proof       []Hash32
	Index       uint64
	DepositData DepositData
}

func (dp Deposit) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteList(len(dp.Proof), func(e *ssz.Encoder, i int) {
		e.WriteFixedBytes(dp.Proof[i][:])
	})
	e.WriteUint64(dp.Index)
	e.WritePrefixed(dp.DepositData.MarshalSSZTo)
}

func (dp *Deposit) UnmarshalSSZFrom(d *ssz.Decoder) error {
	dp.Proof = nil
	if err := d.ReadList(func(d *ssz.Decoder) error {
		var h Hash32
		if err := d.ReadFixedBytes(h[:]); err != nil {
			return err
		}
		dp.Proof = append(dp.Proof, h)
		return nil
	}); err != nil {
		return err
	}
	var err error
	if dp.Index, err = d.ReadUint64(); err != nil {
		return err
	}
	return d.ReadPrefixed(dp.DepositData.UnmarshalSSZFrom)
}

func (dp Deposit) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		h.ListRoot(rootsOf(dp.Proof)),
		h.Uint64Root(dp.Index),
		dp.DepositData.HashTreeRootWith(h),
	)
}

// VoluntaryExit is a validator-initiated exit request.
type VoluntaryExit struct {
	Epoch          Epoch
	ValidatorIndex ValidatorIndex
	Signature      BLSSignature
}

func (v VoluntaryExit) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteUint64(uint64(v.Epoch))
	e.WriteUint64(uint64(v.ValidatorIndex))
	e.WriteFixedBytes(v.Signature[:])
}

func (v *VoluntaryExit) UnmarshalSSZFrom(d *ssz.Decoder) error {
	u, err := d.ReadUint64()
	if err != nil {
		return err
	}
	v.Epoch = Epoch(u)
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	v.ValidatorIndex = ValidatorIndex(u)
	return d.ReadFixedBytes(v.Signature[:])
}

func (v VoluntaryExit) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		h.Uint64Root(uint64(v.Epoch)),
		h.Uint64Root(uint64(v.ValidatorIndex)),
		v.Signature.HashTreeRootWith(h),
	)
}

// SigningRootWith hashes the exit with the signature field excluded.
func (v VoluntaryExit) SigningRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		h.Uint64Root(uint64(v.Epoch)),
		h.Uint64Root(uint64(v.ValidatorIndex)),
	)
}

// Transfer moves balance between validators.
type Transfer struct {
	From      ValidatorIndex
	To        ValidatorIndex
	Amount    Gwei
	Fee       Gwei
	Slot      Slot
	Pubkey    BLSPubkey
	Signature BLSSignature
}

func (t Transfer) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteUint64(uint64(t.From))
	e.WriteUint64(uint64(t.To))
	e.WriteUint64(uint64(t.Amount))
	e.WriteUint64(uint64(t.Fee))
	e.WriteUint64(uint64(t.Slot))
	e.WriteFixedBytes(t.Pubkey[:])
	e.WriteFixedBytes(t.Signature[:])
}

func (t *Transfer) UnmarshalSSZFrom(d *ssz.Decoder) error {
	var u uint64
	var err error
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	t.From = ValidatorIndex(u)
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	t.To = ValidatorIndex(u)
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	t.Amount = Gwei(u)
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	t.Fee = Gwei(u)
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	t.Slot = Slot(u)
	if err = d.ReadFixedBytes(t.Pubkey[:]); err != nil {
		return err
	}
	return d.ReadFixedBytes(t.Signature[:])
}

func (t Transfer) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		h.Uint64Root(uint64(t.From)),
		h.Uint64Root(uint64(t.To)),
		h.Uint64Root(uint64(t.Amount)),
		h.Uint64Root(uint64(t.Fee)),
		h.Uint64Root(uint64(t.Slot)),
		t.Pubkey.HashTreeRootWith(h),
		t.Signature.HashTreeRootWith(h),
	)
}

// SigningRootWith hashes the transfer with the signature field excluded.
func (t Transfer) SigningRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		h.Uint64Root(uint64(t.From)),
		h.Uint64Root(uint64(t.To)),
		h.Uint64Root(uint64(t.Amount)),
		h.Uint64Root(uint64(t.Fee)),
		h.Uint64Root(uint64(t.Slot)),
		t.Pubkey.HashTreeRootWith(h),
	)
}
