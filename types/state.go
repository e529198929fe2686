package types

import (
	"fmt"
	"sync/atomic"

	"github.com/myaccount-club/beacon-chain/ssz"
)

// BeaconState is the full consensus state. States are immutable once
// published; transitions work on a detached Copy. The tree-hash root is
// memoized on first computation.
//
// Ring-buffer fields keep the length given by the corresponding constant
// and are indexed by (value mod length).
type BeaconState struct {
	Slot        Slot
	GenesisTime uint64
	Fork        Fork

	ValidatorRegistry []ValidatorRecord
	ValidatorBalances []Gwei

	LatestRandaoMixes      []Hash32
	LatestCrosslinks       []Crosslink
	LatestBlockRoots       []Hash32
	LatestActiveIndexRoots []Hash32
	LatestSlashedBalances  []Gwei

	PreviousJustifiedEpoch Epoch
	JustifiedEpoch         Epoch
	JustificationBitfield  uint64
	FinalizedEpoch         Epoch

	LatestAttestations []PendingAttestationRecord

	LatestEth1Data Eth1Data
	Eth1DataVotes  []Eth1DataVote
	DepositIndex   uint64

	root atomic.Pointer[Hash32]
}

// Copy returns a deep copy with a fresh root cache. Transitions mutate the
// copy and publish it as the next immutable state.
func (s *BeaconState) Copy() *BeaconState {
	c := &BeaconState{
		Slot:                   s.Slot,
		GenesisTime:            s.GenesisTime,
		Fork:                   s.Fork,
		PreviousJustifiedEpoch: s.PreviousJustifiedEpoch,
		JustifiedEpoch:         s.JustifiedEpoch,
		JustificationBitfield:  s.JustificationBitfield,
		FinalizedEpoch:         s.FinalizedEpoch,
		LatestEth1Data:         s.LatestEth1Data,
		DepositIndex:           s.DepositIndex,
	}
	c.ValidatorRegistry = append([]ValidatorRecord(nil), s.ValidatorRegistry...)
	c.ValidatorBalances = append([]Gwei(nil), s.ValidatorBalances...)
	c.LatestRandaoMixes = append([]Hash32(nil), s.LatestRandaoMixes...)
	c.LatestCrosslinks = append([]Crosslink(nil), s.LatestCrosslinks...)
	c.LatestBlockRoots = append([]Hash32(nil), s.LatestBlockRoots...)
	c.LatestActiveIndexRoots = append([]Hash32(nil), s.LatestActiveIndexRoots...)
	c.LatestSlashedBalances = append([]Gwei(nil), s.LatestSlashedBalances...)
	c.LatestAttestations = make([]PendingAttestationRecord, len(s.LatestAttestations))
	for i, a := range s.LatestAttestations {
		a.AggregationBitfield = a.AggregationBitfield.Copy()
		a.CustodyBitfield = a.CustodyBitfield.Copy()
		c.LatestAttestations[i] = a
	}
	c.Eth1DataVotes = append([]Eth1DataVote(nil), s.Eth1DataVotes...)
	return c
}

func (s *BeaconState) MarshalSSZTo(e *ssz.Encoder) {
	e.WriteUint64(uint64(s.Slot))
	e.WriteUint64(s.GenesisTime)
	e.WritePrefixed(s.Fork.MarshalSSZTo)
	e.WriteList(len(s.ValidatorRegistry), func(e *ssz.Encoder, i int) {
		e.WritePrefixed(s.ValidatorRegistry[i].MarshalSSZTo)
	})
	e.WriteList(len(s.ValidatorBalances), func(e *ssz.Encoder, i int) {
		e.WriteUint64(uint64(s.ValidatorBalances[i]))
	})
	e.WriteList(len(s.LatestRandaoMixes), func(e *ssz.Encoder, i int) {
		e.WriteFixedBytes(s.LatestRandaoMixes[i][:])
	})
	e.WriteList(len(s.LatestCrosslinks), func(e *ssz.Encoder, i int) {
		e.WritePrefixed(s.LatestCrosslinks[i].MarshalSSZTo)
	})
	e.WriteList(len(s.LatestBlockRoots), func(e *ssz.Encoder, i int) {
		e.WriteFixedBytes(s.LatestBlockRoots[i][:])
	})
	e.WriteList(len(s.LatestActiveIndexRoots), func(e *ssz.Encoder, i int) {
		e.WriteFixedBytes(s.LatestActiveIndexRoots[i][:])
	})
	e.WriteList(len(s.LatestSlashedBalances), func(e *ssz.Encoder, i int) {
		e.WriteUint64(uint64(s.LatestSlashedBalances[i]))
	})
	e.WriteUint64(uint64(s.PreviousJustifiedEpoch))
	e.WriteUint64(uint64(s.JustifiedEpoch))
	e.WriteUint64(s.JustificationBitfield)
	e.WriteUint64(uint64(s.FinalizedEpoch))
	e.WriteList(len(s.LatestAttestations), func(e *ssz.Encoder, i int) {
		e.WritePrefixed(s.LatestAttestations[i].MarshalSSZTo)
	})
	e.WritePrefixed(s.LatestEth1Data.MarshalSSZTo)
	e.WriteList(len(s.Eth1DataVotes), func(e *ssz.Encoder, i int) {
		e.WritePrefixed(s.Eth1DataVotes[i].MarshalSSZTo)
	})
	e.WriteUint64(s.DepositIndex)
}

func (s *BeaconState) UnmarshalSSZFrom(d *ssz.Decoder) error {
	var u uint64
	var err error
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	s.Slot = Slot(u)
	if s.GenesisTime, err = d.ReadUint64(); err != nil {
		return err
	}
	if err = d.ReadPrefixed(s.Fork.UnmarshalSSZFrom); err != nil {
		return err
	}
	s.ValidatorRegistry = nil
	if err = d.ReadList(func(d *ssz.Decoder) error {
		var v ValidatorRecord
		if err := d.ReadPrefixed(v.UnmarshalSSZFrom); err != nil {
			return err
		}
		s.ValidatorRegistry = append(s.ValidatorRegistry, v)
		return nil
	}); err != nil {
		return err
	}
	s.ValidatorBalances = nil
	if err = d.ReadList(func(d *ssz.Decoder) error {
		u, err := d.ReadUint64()
		s.ValidatorBalances = append(s.ValidatorBalances, Gwei(u))
		return err
	}); err != nil {
		return err
	}
	s.LatestRandaoMixes = nil
	if err = d.ReadList(func(d *ssz.Decoder) error {
		var h Hash32
		if err := d.ReadFixedBytes(h[:]); err != nil {
			return err
		}
		s.LatestRandaoMixes = append(s.LatestRandaoMixes, h)
		return nil
	}); err != nil {
		return err
	}
	s.LatestCrosslinks = nil
	if err = d.ReadList(func(d *ssz.Decoder) error {
		var c Crosslink
		if err := d.ReadPrefixed(c.UnmarshalSSZFrom); err != nil {
			return err
		}
		s.LatestCrosslinks = append(s.LatestCrosslinks, c)
		return nil
	}); err != nil {
		return err
	}
	s.LatestBlockRoots = nil
	if err = d.ReadList(func(d *ssz.Decoder) error {
		var h Hash32
		if err := d.ReadFixedBytes(h[:]); err != nil {
			return err
		}
		s.LatestBlockRoots = append(s.LatestBlockRoots, h)
		return nil
	}); err != nil {
		return err
	}
	s.LatestActiveIndexRoots = nil
	if err = d.ReadList(func(d *ssz.Decoder) error {
		var h Hash32
		if err := d.ReadFixedBytes(h[:]); err != nil {
			return err
		}
		s.LatestActiveIndexRoots = append(s.LatestActiveIndexRoots, h)
		return nil
	}); err != nil {
		return err
	}
	s.LatestSlashedBalances = nil
	if err = d.ReadList(func(d *ssz.Decoder) error {
		u, err := d.ReadUint64()
		s.LatestSlashedBalances = append(s.LatestSlashedBalances, Gwei(u))
		return err
	}); err != nil {
		return err
	}
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	s.PreviousJustifiedEpoch = Epoch(u)
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	s.JustifiedEpoch = Epoch(u)
	if s.JustificationBitfield, err = d.ReadUint64(); err != nil {
		return err
	}
	if u, err = d.ReadUint64(); err != nil {
		return err
	}
	s.FinalizedEpoch = Epoch(u)
	s.LatestAttestations = nil
	if err = d.ReadList(func(d *ssz.Decoder) error {
		var p PendingAttestationRecord
		if err := d.ReadPrefixed(p.UnmarshalSSZFrom); err != nil {
			return err
		}
		s.LatestAttestations = append(s.LatestAttestations, p)
		return nil
	}); err != nil {
		return err
	}
	if err = d.ReadPrefixed(s.LatestEth1Data.UnmarshalSSZFrom); err != nil {
		return err
	}
	s.Eth1DataVotes = nil
	if err = d.ReadList(func(d *ssz.Decoder) error {
		var v Eth1DataVote
		if err := d.ReadPrefixed(v.UnmarshalSSZFrom); err != nil {
			return err
		}
		s.Eth1DataVotes = append(s.Eth1DataVotes, v)
		return nil
	}); err != nil {
		return err
	}
	s.DepositIndex, err = d.ReadUint64()
	return err
}

// HashTreeRootWith returns the state root, memoized across calls.
func (s *BeaconState) HashTreeRootWith(h *ssz.Hasher) [32]byte {
	if cached := s.root.Load(); cached != nil {
		return *cached
	}
	registryRoots := make([][32]byte, len(s.ValidatorRegistry))
	for i, v := range s.ValidatorRegistry {
		registryRoots[i] = v.HashTreeRootWith(h)
	}
	balanceRoots := make([][32]byte, len(s.ValidatorBalances))
	for i, v := range s.ValidatorBalances {
		balanceRoots[i] = h.Uint64Root(uint64(v))
	}
	crosslinkRoots := make([][32]byte, len(s.LatestCrosslinks))
	for i, v := range s.LatestCrosslinks {
		crosslinkRoots[i] = v.HashTreeRootWith(h)
	}
	slashedRoots := make([][32]byte, len(s.LatestSlashedBalances))
	for i, v := range s.LatestSlashedBalances {
		slashedRoots[i] = h.Uint64Root(uint64(v))
	}
	attRoots := make([][32]byte, len(s.LatestAttestations))
	for i, v := range s.LatestAttestations {
		attRoots[i] = v.HashTreeRootWith(h)
	}
	voteRoots := make([][32]byte, len(s.Eth1DataVotes))
	for i, v := range s.Eth1DataVotes {
		voteRoots[i] = v.HashTreeRootWith(h)
	}
	root := Hash32(h.ContainerRoot(
		h.Uint64Root(uint64(s.Slot)),
		h.Uint64Root(s.GenesisTime),
		s.Fork.HashTreeRootWith(h),
		h.ListRoot(registryRoots),
		h.ListRoot(balanceRoots),
		h.ListRoot(rootsOf(s.LatestRandaoMixes)),
		h.ListRoot(crosslinkRoots),
		h.ListRoot(rootsOf(s.LatestBlockRoots)),
		h.ListRoot(rootsOf(s.LatestActiveIndexRoots)),
		h.ListRoot(slashedRoots),
		h.Uint64Root(uint64(s.PreviousJustifiedEpoch)),
		h.Uint64Root(uint64(s.JustifiedEpoch)),
		h.Uint64Root(s.JustificationBitfield),
		h.Uint64Root(uint64(s.FinalizedEpoch)),
		h.ListRoot(attRoots),
		s.LatestEth1Data.HashTreeRootWith(h),
		h.ListRoot(voteRoots),
		h.Uint64Root(s.DepositIndex),
	))
	s.root.Store(&root)
	return root
}

func (s *BeaconState) String() string {
	return fmt.Sprintf("State[slot=%d validators=%d justified=%d finalized=%d]",
		s.Slot, len(s.ValidatorRegistry), s.JustifiedEpoch, s.FinalizedEpoch)
}
