package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/myaccount-club/beacon-chain/bls"
	"github.com/myaccount-club/beacon-chain/chain/observer"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/pow"
	"github.com/myaccount-club/beacon-chain/schedulers"
	"github.com/myaccount-club/beacon-chain/transition"
	"github.com/myaccount-club/beacon-chain/types"
)

const genesisTime = 600

type fixture struct {
	spec        *helpers.SpecHelpers
	credentials []*bls.Credentials
	contract    *pow.SimulatedDepositContract
	chainStart  pow.ChainStart
	genesis     *transition.StateEx
	genesisBlk  *types.BeaconBlock
	slots       *transition.ExtendedSlotTransition
	perBlock    *transition.PerBlockTransition
}

func newFixture(t *testing.T, validators int, opts ...helpers.Option) *fixture {
	t.Helper()
	spec := helpers.New(params.MinimalSpec(), opts...)
	credentials := make([]*bls.Credentials, validators)
	for i := range credentials {
		credentials[i] = bls.NewCredentials(bls.NewKeySigner(bls.RandKey()))
	}
	contract := pow.NewSimulatedDepositContract(spec, credentials, genesisTime, types.Hash32{0x01})
	chainStart := <-contract.ChainStartEvent()

	genesisBlk := transition.EmptyGenesisBlock(spec)
	genesis, err := transition.NewInitialTransition(chainStart, spec).Apply(genesisBlk)
	require.NoError(t, err)

	perSlot := transition.NewPerSlotTransition(spec)
	perEpoch := transition.NewPerEpochTransition(spec)
	return &fixture{
		spec:        spec,
		credentials: credentials,
		contract:    contract,
		chainStart:  chainStart,
		genesis:     genesis,
		genesisBlk:  genesisBlk,
		slots:       transition.NewExtendedSlotTransition(perSlot, perEpoch, spec),
		perBlock:    transition.NewPerBlockTransition(spec),
	}
}

func (f *fixture) observableAt(t *testing.T, slot types.Slot) observer.ObservableBeaconState {
	t.Helper()
	stateEx, err := f.slots.ApplyTo(f.genesis, slot)
	require.NoError(t, err)
	return observer.ObservableBeaconState{
		Head:              f.genesisBlk,
		LatestSlotState:   stateEx,
		PendingOperations: observer.EmptyPool{},
	}
}

// The proposed block commits to its own post-state and carries a proposal
// signature over the signature-truncated block root.
func TestProposerRoundTrip(t *testing.T) {
	f := newFixture(t, 8)
	observable := f.observableAt(t, 1)
	state := observable.LatestSlotState.State

	signerIndex, err := f.spec.BeaconProposerIndex(state, state.Slot)
	require.NoError(t, err)
	signer := f.credentials[signerIndex].Signer()

	proposer := NewProposer(f.spec, f.perBlock, f.contract)
	block, err := proposer.Propose(observable, signer)
	require.NoError(t, err)
	require.Equal(t, state.Slot, block.Slot)
	require.Equal(t, f.spec.HashTreeRoot(f.genesisBlk), block.ParentRoot)

	// tree_hash(apply(block, state)) == block.state_root
	post, err := f.perBlock.Apply(observable.LatestSlotState, block)
	require.NoError(t, err)
	require.Equal(t, f.spec.HashTreeRoot(post.State), block.StateRoot)

	// Signature verifies over the truncated root under the PROPOSAL domain.
	domain := f.spec.Domain(state.Fork, f.spec.CurrentEpoch(state), params.DomainProposal)
	require.True(t, bls.Verify(signer.Pubkey(), f.spec.SigningRoot(block), block.Signature, domain))

	// The eth1 data comes from the oracle.
	latest, ok := f.contract.LatestEth1Data()
	require.True(t, ok)
	require.Equal(t, latest, block.Eth1Data)
}

func TestProposerFillsBodyFromPool(t *testing.T) {
	f := newFixture(t, 8, helpers.WithoutBLSVerification())

	stateEx, err := f.slots.ApplyTo(f.genesis, 1)
	require.NoError(t, err)
	pool := observer.NewOperationPool()
	exit := types.VoluntaryExit{Epoch: 0, ValidatorIndex: 2}
	pool.AddVoluntaryExit(exit)
	observable := observer.ObservableBeaconState{
		Head:              f.genesisBlk,
		LatestSlotState:   stateEx,
		PendingOperations: pool,
	}

	proposer := NewProposer(f.spec, f.perBlock, f.contract)
	block, err := proposer.Propose(observable, f.credentials[0].Signer())
	require.NoError(t, err)
	require.Equal(t, []types.VoluntaryExit{exit}, block.Body.VoluntaryExits)
	// Genesis consumed every contract deposit; nothing to include.
	require.Empty(t, block.Body.Deposits)
}

func TestAttesterBitfieldPlacement(t *testing.T) {
	f := newFixture(t, 64, helpers.WithoutBLSVerification())
	observable := f.observableAt(t, 1)
	state := observable.LatestSlotState.State

	committees, err := f.spec.CrosslinkCommitteesAtSlot(state, state.Slot)
	require.NoError(t, err)
	committee := committees[0]
	target := committee.Committee[len(committee.Committee)-1]

	attester := NewAttester(f.spec)
	attestation, err := attester.Attest(target, committee.Shard, observable, f.credentials[target].Signer())
	require.NoError(t, err)

	require.Len(t, attestation.AggregationBitfield, types.BitfieldSize(len(committee.Committee)))
	require.Len(t, attestation.CustodyBitfield, types.BitfieldSize(len(committee.Committee)))
	require.True(t, attestation.CustodyBitfield.IsZero())

	for i := range committee.Committee {
		expected := committee.Committee[i] == target
		require.Equal(t, expected, attestation.AggregationBitfield.BitAt(i))
	}

	require.Equal(t, state.Slot, attestation.Data.Slot)
	require.Equal(t, committee.Shard, attestation.Data.Shard)
	require.Equal(t, types.ZeroHash, attestation.Data.CrosslinkDataRoot)
	require.Equal(t, f.spec.HashTreeRoot(f.genesisBlk), attestation.Data.BeaconBlockRoot)
}

func TestAttesterRejectsNonMember(t *testing.T) {
	f := newFixture(t, 64, helpers.WithoutBLSVerification())
	observable := f.observableAt(t, 1)
	state := observable.LatestSlotState.State

	committees, err := f.spec.CrosslinkCommitteesAtSlot(state, state.Slot)
	require.NoError(t, err)
	committee := committees[0]

	// A validator from another slot's committee is not a member here.
	var outsider types.ValidatorIndex
	found := false
	for i := 0; i < 64 && !found; i++ {
		candidate := types.ValidatorIndex(i)
		member := false
		for _, index := range committee.Committee {
			if index == candidate {
				member = true
				break
			}
		}
		if !member {
			outsider = candidate
			found = true
		}
	}
	require.True(t, found)

	_, err = NewAttester(f.spec).Attest(outsider, committee.Shard, observable, f.credentials[outsider].Signer())
	require.Error(t, err)
}

// Stale states are discarded; a current-slot state is kept and duties run
// exactly once per slot value.
func TestServiceDiscardsStaleState(t *testing.T) {
	f := newFixture(t, 64, helpers.WithoutBLSVerification())
	cfg := f.spec.Spec()

	// Clock sits inside slot 15.
	clock := schedulers.NewControlledSchedulers(int64(genesisTime+15*cfg.SecondsPerSlot) * 1000)

	// Exclude the slot-15 proposer so no proposal fires during the test.
	state15, err := f.slots.ApplyTo(f.genesis, 15)
	require.NoError(t, err)
	proposerIndex, err := f.spec.BeaconProposerIndex(state15.State, 15)
	require.NoError(t, err)
	var credentials []*bls.Credentials
	for i, c := range f.credentials {
		if types.ValidatorIndex(i) != proposerIndex {
			credentials = append(credentials, c)
		}
	}

	stateStream := make(chan observer.ObservableBeaconState)
	service := NewMultiValidatorService(
		credentials,
		NewProposer(f.spec, f.perBlock, f.contract),
		NewAttester(f.spec),
		f.spec,
		stateStream,
		clock,
	)
	attSub := service.AttestationsStream().Subscribe()

	// A state for slot 0 while the clock says slot 15: discarded.
	service.OnNewState(f.observableAt(t, 0))
	require.Nil(t, service.RecentState())
	_, processed := service.LastProcessedSlot()
	require.False(t, processed)

	// A matching state is kept and scheduled.
	observable15 := observer.ObservableBeaconState{
		Head:              f.genesisBlk,
		LatestSlotState:   state15,
		PendingOperations: observer.EmptyPool{},
	}
	service.OnNewState(observable15)
	require.NotNil(t, service.RecentState())
	last, processed := service.LastProcessedSlot()
	require.True(t, processed)
	require.Equal(t, types.Slot(15), last)

	// Initialization completed for every provided credential.
	initSub := service.InitializedStream().Subscribe()
	_, open := <-initSub
	require.False(t, open, "initialized stream should be complete")

	// No attestation before the slot midpoint.
	require.Empty(t, attSub)

	// Advancing to the midpoint fires the scheduled attestations: the
	// slot-15 committee minus the excluded proposer.
	clock.AddTime(3200 * time.Millisecond)

	committees, err := f.spec.CrosslinkCommitteesAtSlot(state15.State, 15)
	require.NoError(t, err)
	expected := 0
	for _, committee := range committees {
		for _, index := range committee.Committee {
			if index != proposerIndex {
				expected++
			}
		}
	}
	require.Len(t, attSub, expected)

	// Re-delivering the same slot does not re-run duties.
	service.OnNewState(observable15)
	clock.AddTime(3200 * time.Millisecond)
	require.Len(t, attSub, expected)
}

// A re-org between scheduling and execution: the validator re-checks
// committee membership against the recent state and skips.
func TestScheduledAttestationSkipsAfterReorg(t *testing.T) {
	f := newFixture(t, 64, helpers.WithoutBLSVerification())
	cfg := f.spec.Spec()

	clock := schedulers.NewControlledSchedulers(int64(genesisTime+15*cfg.SecondsPerSlot) * 1000)
	service := NewMultiValidatorService(
		f.credentials,
		NewProposer(f.spec, f.perBlock, f.contract),
		NewAttester(f.spec),
		f.spec,
		make(chan observer.ObservableBeaconState),
		clock,
	)
	attSub := service.AttestationsStream().Subscribe()

	state15, err := f.slots.ApplyTo(f.genesis, 15)
	require.NoError(t, err)
	service.OnNewState(observer.ObservableBeaconState{
		Head:              f.genesisBlk,
		LatestSlotState:   state15,
		PendingOperations: observer.EmptyPool{},
	})

	// Before the midpoint the recent state is replaced by a state for slot
	// 16: members of the slot-15 committees that are not in a slot-16
	// committee skip their fired attestation.
	state16, err := f.slots.ApplyTo(state15, 16)
	require.NoError(t, err)
	service.keepRecentState(observer.ObservableBeaconState{
		Head:              f.genesisBlk,
		LatestSlotState:   state16,
		PendingOperations: observer.EmptyPool{},
	})
	drain(attSub)

	// Fire anything still pending from slot 15: every produced attestation
	// must target slot 16, the recent state's slot.
	clock.AddTime(7 * time.Second)
	for {
		select {
		case a := <-attSub:
			require.Equal(t, types.Slot(16), a.Data.Slot)
			continue
		default:
		}
		break
	}
}

func drain[T any](ch <-chan T) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
