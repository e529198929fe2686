package verifier

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/myaccount-club/beacon-chain/bls"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/pow"
	"github.com/myaccount-club/beacon-chain/transition"
	"github.com/myaccount-club/beacon-chain/types"
)

func testChain(t *testing.T, validators int) (*helpers.SpecHelpers, pow.ChainStart, *transition.StateEx) {
	t.Helper()
	spec := helpers.New(params.MinimalSpec(), helpers.WithoutBLSVerification())
	credentials := make([]*bls.Credentials, validators)
	for i := range credentials {
		credentials[i] = bls.NewCredentials(bls.NewKeySigner(bls.RandKey()))
	}
	contract := pow.NewSimulatedDepositContract(spec, credentials, 600, types.Hash32{0x01})
	chainStart := <-contract.ChainStartEvent()
	genesis, err := transition.NewInitialTransition(chainStart, spec).Apply(transition.EmptyGenesisBlock(spec))
	require.NoError(t, err)
	return spec, chainStart, genesis
}

// advance applies empty-slot transitions up to target.
func advance(t *testing.T, spec *helpers.SpecHelpers, stateEx *transition.StateEx, target types.Slot) *transition.StateEx {
	t.Helper()
	slots := transition.NewExtendedSlotTransition(
		transition.NewPerSlotTransition(spec),
		transition.NewPerEpochTransition(spec),
		spec,
	)
	out, err := slots.ApplyTo(stateEx, target)
	require.NoError(t, err)
	return out
}

// validAttestation builds an attestation for a committee at the given slot,
// included into state at inclusion distance MIN_ATTESTATION_INCLUSION_DELAY.
func validAttestation(t *testing.T, spec *helpers.SpecHelpers, state *types.BeaconState, attSlot types.Slot) types.Attestation {
	t.Helper()
	committees, err := spec.CrosslinkCommitteesAtSlot(state, attSlot)
	require.NoError(t, err)
	committee := committees[0]

	justifiedRoot, err := spec.BlockRoot(state, spec.EpochStartSlot(state.JustifiedEpoch))
	require.NoError(t, err)
	boundaryRoot, err := spec.BlockRoot(state, spec.EpochStartSlot(spec.SlotToEpoch(attSlot)))
	require.NoError(t, err)

	bits := types.NewBitfield(len(committee.Committee))
	bits.SetBitAt(0)
	return types.Attestation{
		AggregationBitfield: bits,
		Data: types.AttestationData{
			Slot:               attSlot,
			Shard:              committee.Shard,
			BeaconBlockRoot:    boundaryRoot,
			EpochBoundaryRoot:  boundaryRoot,
			CrosslinkDataRoot:  types.ZeroHash,
			LatestCrosslink:    state.LatestCrosslinks[committee.Shard],
			JustifiedEpoch:     state.JustifiedEpoch,
			JustifiedBlockRoot: justifiedRoot,
		},
		CustodyBitfield: types.NewBitfield(len(committee.Committee)),
	}
}

func TestAttestationVerifierAcceptsValid(t *testing.T) {
	spec, _, genesis := testChain(t, 64)
	state := advance(t, spec, genesis, 3).State

	attestation := validAttestation(t, spec, state, 2)
	res := NewAttestationVerifier(spec).Verify(attestation, state)
	require.True(t, res.IsPassed(), res.Message())
}

func TestAttestationVerifierRejectsEarlyInclusion(t *testing.T) {
	spec, _, genesis := testChain(t, 64)
	state := advance(t, spec, genesis, 2).State

	// Attestation for the state's own slot violates the inclusion delay.
	attestation := validAttestation(t, spec, advance(t, spec, genesis, 3).State, 2)
	attestation.Data.Slot = 2
	res := NewAttestationVerifier(spec).Verify(attestation, state)
	require.False(t, res.IsPassed())
}

func TestAttestationVerifierRejectsNonZeroCustody(t *testing.T) {
	spec, _, genesis := testChain(t, 64)
	state := advance(t, spec, genesis, 3).State

	attestation := validAttestation(t, spec, state, 2)
	attestation.CustodyBitfield.SetBitAt(0)
	res := NewAttestationVerifier(spec).Verify(attestation, state)
	require.False(t, res.IsPassed())
	require.Contains(t, res.Message(), "custody_bitfield")
}

func TestAttestationVerifierRejectsEmptyAggregation(t *testing.T) {
	spec, _, genesis := testChain(t, 64)
	state := advance(t, spec, genesis, 3).State

	attestation := validAttestation(t, spec, state, 2)
	attestation.AggregationBitfield = make(types.Bitfield, len(attestation.AggregationBitfield))
	res := NewAttestationVerifier(spec).Verify(attestation, state)
	require.False(t, res.IsPassed())
	require.Contains(t, res.Message(), "aggregation_bitfield")
}

func TestAttestationVerifierRejectsNonZeroCrosslinkDataRoot(t *testing.T) {
	spec, _, genesis := testChain(t, 64)
	state := advance(t, spec, genesis, 3).State

	attestation := validAttestation(t, spec, state, 2)
	attestation.Data.CrosslinkDataRoot = types.Hash32{0x01}
	res := NewAttestationVerifier(spec).Verify(attestation, state)
	require.False(t, res.IsPassed())
}

// The deposit-list verifier names both the expected and the observed index.
func TestDepositListOrderingRejection(t *testing.T) {
	spec, chainStart, genesis := testChain(t, 8)
	state := advance(t, spec, genesis, 1).State

	res := NewDepositVerifier(spec).VerifyDepositList(
		[]types.Deposit{chainStart.InitialDeposits[3]}, state)
	require.False(t, res.IsPassed())
	require.Contains(t, res.Message(), fmt.Sprintf("%d", state.DepositIndex))
	require.Contains(t, res.Message(), "3")
}

func TestDepositListStartingAtStateIndexPasses(t *testing.T) {
	spec := helpers.New(params.MinimalSpec(), helpers.WithoutBLSVerification())
	credentials := make([]*bls.Credentials, 10)
	for i := range credentials {
		credentials[i] = bls.NewCredentials(bls.NewKeySigner(bls.RandKey()))
	}
	contract := pow.NewSimulatedDepositContract(spec, credentials, 600, types.Hash32{0x01})
	chainStart := <-contract.ChainStartEvent()

	// Seed genesis with the first 8 deposits only; 8 and 9 stay pending.
	chainStart.InitialDeposits = chainStart.InitialDeposits[:8]
	genesis, err := transition.NewInitialTransition(chainStart, spec).Apply(transition.EmptyGenesisBlock(spec))
	require.NoError(t, err)
	state := advance(t, spec, genesis, 1).State
	require.Equal(t, uint64(8), state.DepositIndex)

	pending := contract.PeekDeposits(16, chainStart.Eth1Data, chainStart.Eth1Data)
	tail := []types.Deposit{pending[8].Deposit, pending[9].Deposit}
	res := NewDepositVerifier(spec).VerifyDepositList(tail, state)
	require.True(t, res.IsPassed(), res.Message())
}

func TestProposerSlashingRequiresConflict(t *testing.T) {
	spec, _, genesis := testChain(t, 8)
	state := advance(t, spec, genesis, 1).State

	proposal := types.ProposalSignedData{Slot: 1, Shard: 0, BlockRoot: types.Hash32{0x01}}
	same := types.ProposerSlashing{
		ProposerIndex: 0,
		Proposal1:     proposal,
		Proposal2:     proposal,
	}
	res := NewProposerSlashingVerifier(spec).Verify(same, state)
	require.False(t, res.IsPassed())
	require.Contains(t, res.Message(), "conflict")

	conflicting := same
	conflicting.Proposal2.BlockRoot = types.Hash32{0x02}
	res = NewProposerSlashingVerifier(spec).Verify(conflicting, state)
	require.True(t, res.IsPassed(), res.Message())
}

func TestProposerSlashingRejectsAlreadySlashed(t *testing.T) {
	spec, _, genesis := testChain(t, 8)
	state := advance(t, spec, genesis, 1).State.Copy()
	state.ValidatorRegistry[0].Slashed = true

	slashing := types.ProposerSlashing{
		ProposerIndex: 0,
		Proposal1:     types.ProposalSignedData{Slot: 1, BlockRoot: types.Hash32{0x01}},
		Proposal2:     types.ProposalSignedData{Slot: 1, BlockRoot: types.Hash32{0x02}},
	}
	res := NewProposerSlashingVerifier(spec).Verify(slashing, state)
	require.False(t, res.IsPassed())
	require.Contains(t, res.Message(), "already slashed")
}

func TestBlockVerifierChecksParentAndLimits(t *testing.T) {
	spec, chainStart, genesis := testChain(t, 8)
	atSlot1 := advance(t, spec, genesis, 1)

	good := types.NewBlock(1, atSlot1.LatestBlockRoot, types.ZeroHash,
		types.EmptySignature, chainStart.Eth1Data, types.EmptyBody(), types.EmptySignature)
	res := NewBlockVerifier(spec).Verify(good, atSlot1.State, atSlot1.LatestBlockRoot)
	require.True(t, res.IsPassed(), res.Message())

	badParent := types.NewBlock(1, types.Hash32{0xff}, types.ZeroHash,
		types.EmptySignature, chainStart.Eth1Data, types.EmptyBody(), types.EmptySignature)
	res = NewBlockVerifier(spec).Verify(badParent, atSlot1.State, atSlot1.LatestBlockRoot)
	require.False(t, res.IsPassed())
	require.Contains(t, res.Message(), "parent root")

	tooManyExits := make([]types.VoluntaryExit, spec.Spec().MaxVoluntaryExits+1)
	overLimit := types.NewBlock(1, atSlot1.LatestBlockRoot, types.ZeroHash,
		types.EmptySignature, chainStart.Eth1Data,
		types.BeaconBlockBody{VoluntaryExits: tooManyExits}, types.EmptySignature)
	res = NewBlockVerifier(spec).Verify(overLimit, atSlot1.State, atSlot1.LatestBlockRoot)
	require.False(t, res.IsPassed())
}

func TestBlockStateRootCommitment(t *testing.T) {
	spec, chainStart, genesis := testChain(t, 8)
	atSlot1 := advance(t, spec, genesis, 1)

	block := types.NewBlock(1, atSlot1.LatestBlockRoot, types.ZeroHash,
		types.EmptySignature, chainStart.Eth1Data, types.EmptyBody(), types.EmptySignature)
	post, err := transition.NewPerBlockTransition(spec).Apply(atSlot1, block)
	require.NoError(t, err)

	committed := block.WithStateRoot(spec.HashTreeRoot(post.State))
	require.True(t, NewBlockVerifier(spec).VerifyStateRoot(committed, post.State).IsPassed())
	require.False(t, NewBlockVerifier(spec).VerifyStateRoot(block, post.State).IsPassed())
}
