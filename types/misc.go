package types

import "github.com/myaccount-club/beacon-chain/ssz"

// Fork separates signatures across hard forks via domain derivation.
type Fork struct {
	PreviousVersion uint64
	CurrentVersion  uint64
	Epoch           Epoch
}

// VersionAt returns the fork version in effect at the given epoch.
func (f Fork) VersionAt(epoch Epoch) uint64 {
	if epoch < f.Epoch {
		return f.PreviousVersion
	}
	return f.CurrentVersion
}

func (f Fork) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteUint64(f.PreviousVersion)
	e.WriteUint64(f.CurrentVersion)
	e.WriteUint64(uint64(f.Epoch))
}

func (f *Fork) UnmarshalSSZFrom(d *ssz.Decoder) error {
	var err error
	if f.PreviousVersion, err = d.ReadUint64(); err != nil {
		return err
	}
	if f.CurrentVersion, err = d.ReadUint64(); err != nil {
		return err
	}
	epoch, err := d.ReadUint64()
	f.Epoch = Epoch(epoch)
	return err
}

func (f Fork) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		h.Uint64Root(f.PreviousVersion),
		h.Uint64Root(f.CurrentVersion),
		h.Uint64Root(uint64(f.Epoch)),
	)
}

// Eth1Data points at a snapshot of the deposit contract.
type Eth1Data struct {
	DepositRoot Hash32
	BlockHash   Hash32
}

func (e1 Eth1Data) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteFixedBytes(e1.DepositRoot[:])
	e.WriteFixedBytes(e1.BlockHash[:])
}

func (e1 *Eth1Data) UnmarshalSSZFrom(d *ssz.Decoder) error {
	if err := d.ReadFixedBytes(e1.DepositRoot[:]); err != nil {
		return err
	}
	return d.ReadFixedBytes(e1.BlockHash[:])
}

func (e1 Eth1Data) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		e1.DepositRoot.HashTreeRootWith(h),
		e1.BlockHash.HashTreeRootWith(h),
	)
}

// Eth1DataVote tallies proposer votes for an eth1 snapshot.
type Eth1DataVote struct {
	Eth1Data  Eth1Data
	VoteCount uint64
}

func (v Eth1DataVote) MarshalSSZTo(e *ssz.Encoder) {
	e.WritePrefixed(v.Eth1Data.MarshalSSZTo)
	e.WriteUint64(v.VoteCount)
}

func (v *Eth1DataVote) UnmarshalSSZFrom(d *ssz.Decoder) error {
	if err := d.ReadPrefixed(v.Eth1Data.UnmarshalSSZFrom); err != nil {
		return err
	}
	var err error
	v.VoteCount, err = d.ReadUint64()
	return err
}

func (v Eth1DataVote) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		v.Eth1Data.HashTreeRootWith(h),
		h.Uint64Root(v.VoteCount),
	)
}

// Crosslink summarizes a shard's state at an epoch boundary. In phase 0 the
// data root stays zero.
type Crosslink struct {
	Epoch             Epoch
	CrosslinkDataRoot Hash32
}

// EmptyCrosslink is the phase-0 crosslink attached to beacon-chain-shard
// attestations.
var EmptyCrosslink = Crosslink{}

func (c Crosslink) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteUint64(uint64(c.Epoch))
	e.WriteFixedBytes(c.CrosslinkDataRoot[:])
}

func (c *Crosslink) UnmarshalSSZFrom(d *ssz.Decoder) error {
	epoch, err := d.ReadUint64()
	if err != nil {
		return err
	}
	c.Epoch = Epoch(epoch)
	return d.ReadFixedBytes(c.CrosslinkDataRoot[:])
}

func (c Crosslink) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		h.Uint64Root(uint64(c.Epoch)),
		c.CrosslinkDataRoot.HashTreeRootWith(h),
	)
}

// ValidatorRecord is a registry entry.
type ValidatorRecord struct {
	Pubkey                BLSPubkey
	WithdrawalCredentials Hash32
	ActivationEpoch       Epoch
	ExitEpoch             Epoch
	WithdrawableEpoch     Epoch
	InitiatedExit         bool
	Slashed               bool
}

// IsActiveAt reports whether the validator is active at the given epoch.
func (v ValidatorRecord) IsActiveAt(epoch Epoch) bool {
	return v.ActivationEpoch <= epoch && epoch < v.ExitEpoch
}

func (v ValidatorRecord) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteFixedBytes(v.Pubkey[:])
	e.WriteFixedBytes(v.WithdrawalCredentials[:])
	e.WriteUint64(uint64(v.ActivationEpoch))
	e.WriteUint64(uint64(v.ExitEpoch))
	e.WriteUint64(uint64(v.WithdrawableEpoch))
	e.WriteBool(v.InitiatedExit)
	e.WriteBool(v.Slashed)
}

func (v *ValidatorRecord) UnmarshalSSZFrom(d *ssz.Decoder) error {
	if err := d.ReadFixedBytes(v.Pubkey[:]); err != nil {
		return err
	}
	if err := d.ReadFixedBytes(v.WithdrawalCredentials[:]); err != nil {
		return err
	}
	var err error
	var u uint64
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	v.ActivationEpoch = Epoch(u)
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	v.ExitEpoch = Epoch(u)
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	v.WithdrawableEpoch = Epoch(u)
	if v.InitiatedExit, err = d.ReadBool(); err != nil {
		return err
	}
	v.Slashed, err = d.ReadBool()
	return err
}

func (v ValidatorRecord) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	return h.ContainerRoot(
		v.Pubkey.HashTreeRootWith(h),
		v.WithdrawalCredentials.HashTreeRootWith(h),
		h.Uint64Root(uint64(v.ActivationEpoch)),
		h.Uint64Root(uint64(v.ExitEpoch)),
		h.Uint64Root(uint64(v.WithdrawableEpoch)),
		h.BoolRoot(v.InitiatedExit),
		h.BoolRoot(v.Slashed),
	)
}
