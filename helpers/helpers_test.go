package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/types"
)

func minimalHelpers() *SpecHelpers {
	return New(params.MinimalSpec(), WithoutBLSVerification())
}

// stateWithValidators builds a state with n active validators and populated
// rings.
func stateWithValidators(cfg *params.ChainSpec, n int) *types.BeaconState {
	state := &types.BeaconState{
		Slot:                   types.Slot(cfg.GenesisSlot),
		LatestRandaoMixes:      make([]types.Hash32, cfg.LatestRandaoMixesLength),
		LatestCrosslinks:       make([]types.Crosslink, cfg.ShardCount),
		LatestBlockRoots:       make([]types.Hash32, cfg.LatestBlockRootsLength),
		LatestActiveIndexRoots: make([]types.Hash32, cfg.LatestActiveIndexRootsLength),
		LatestSlashedBalances:  make([]types.Gwei, cfg.LatestSlashedExitLength),
	}
	for i := 0; i < n; i++ {
		var pubkey types.BLSPubkey
		pubkey[0] = byte(i + 1)
		pubkey[1] = byte(i >> 8)
		state.ValidatorRegistry = append(state.ValidatorRegistry, types.ValidatorRecord{
			Pubkey:            pubkey,
			ActivationEpoch:   types.Epoch(cfg.GenesisEpoch()),
			ExitEpoch:         types.Epoch(params.FarFutureEpoch),
			WithdrawableEpoch: types.Epoch(params.FarFutureEpoch),
		})
		state.ValidatorBalances = append(state.ValidatorBalances, types.Gwei(cfg.MaxDepositAmount))
	}
	return state
}

func TestSlotEpochMath(t *testing.T) {
	s := minimalHelpers()
	require.Equal(t, types.Epoch(0), s.SlotToEpoch(7))
	require.Equal(t, types.Epoch(1), s.SlotToEpoch(8))
	require.Equal(t, types.Slot(16), s.EpochStartSlot(2))
	require.True(t, s.IsEpochEnd(7))
	require.False(t, s.IsEpochEnd(8))
}

func TestShuffleIsPermutation(t *testing.T) {
	s := minimalHelpers()
	indices := make([]types.ValidatorIndex, 25)
	for i := range indices {
		indices[i] = types.ValidatorIndex(i)
	}
	seed := types.Hash32{0x42}
	shuffled := s.shuffleIndices(indices, seed)
	require.Len(t, shuffled, len(indices))

	seen := make(map[types.ValidatorIndex]bool)
	for _, v := range shuffled {
		require.False(t, seen[v], "index %d appears twice", v)
		seen[v] = true
	}

	// Deterministic for a fixed seed, different for another.
	again := s.shuffleIndices(indices, seed)
	require.Equal(t, shuffled, again)
	other := s.shuffleIndices(indices, types.Hash32{0x43})
	require.NotEqual(t, shuffled, other)
}

func TestCommitteesDisjointAndCovering(t *testing.T) {
	s := minimalHelpers()
	cfg := s.Spec()
	state := stateWithValidators(cfg, 64)

	seen := make(map[types.ValidatorIndex]int)
	for slot := uint64(0); slot < cfg.SlotsPerEpoch; slot++ {
		committees, err := s.CrosslinkCommitteesAtSlot(state, types.Slot(slot))
		require.NoError(t, err)
		require.NotEmpty(t, committees)
		for _, c := range committees {
			for _, index := range c.Committee {
				seen[index]++
			}
		}
	}
	require.Len(t, seen, 64)
	for index, count := range seen {
		require.Equal(t, 1, count, "validator %d assigned %d times", index, count)
	}
}

func TestProposerShardRule(t *testing.T) {
	s := minimalHelpers()
	cfg := s.Spec()
	state := stateWithValidators(cfg, 64)

	for slot := uint64(0); slot < cfg.SlotsPerEpoch; slot++ {
		committees, err := s.CrosslinkCommitteesAtSlot(state, types.Slot(slot))
		require.NoError(t, err)
		require.Equal(t, types.Shard(slot%cfg.ShardCount), committees[0].Shard)

		proposer, err := s.BeaconProposerIndex(state, types.Slot(slot))
		require.NoError(t, err)
		require.Equal(t, committees[0].Committee[0], proposer)
	}
}

func TestAttestationParticipantsPreserveOrder(t *testing.T) {
	s := minimalHelpers()
	cfg := s.Spec()
	state := stateWithValidators(cfg, 64)

	committees, err := s.CrosslinkCommitteesAtSlot(state, state.Slot)
	require.NoError(t, err)
	committee := committees[0].Committee

	bits := types.NewBitfield(len(committee))
	bits.SetBitAt(0)
	bits.SetBitAt(len(committee) - 1)

	data := types.AttestationData{Slot: state.Slot, Shard: committees[0].Shard}
	participants, err := s.AttestationParticipants(state, data, bits)
	require.NoError(t, err)
	require.Equal(t, []types.ValidatorIndex{committee[0], committee[len(committee)-1]}, participants)
}

func TestAttestationParticipantsRejectsBadBitfield(t *testing.T) {
	s := minimalHelpers()
	cfg := s.Spec()
	state := stateWithValidators(cfg, 64)

	committees, err := s.CrosslinkCommitteesAtSlot(state, state.Slot)
	require.NoError(t, err)

	data := types.AttestationData{Slot: state.Slot, Shard: committees[0].Shard}
	_, err = s.AttestationParticipants(state, data, types.Bitfield{0x01})
	require.Error(t, err)
}

func TestDomainSelectsForkVersion(t *testing.T) {
	s := minimalHelpers()
	fork := types.Fork{PreviousVersion: 1, CurrentVersion: 2, Epoch: 10}
	require.Equal(t, uint64(1)<<32|params.DomainProposal, s.Domain(fork, 9, params.DomainProposal))
	require.Equal(t, uint64(2)<<32|params.DomainProposal, s.Domain(fork, 10, params.DomainProposal))
}

func TestSlashValidator(t *testing.T) {
	s := minimalHelpers()
	cfg := s.Spec()
	state := stateWithValidators(cfg, 64)

	target := types.ValidatorIndex(5)
	balanceBefore := state.ValidatorBalances[target]

	require.NoError(t, s.SlashValidator(state, target))
	require.True(t, state.ValidatorRegistry[target].Slashed)
	require.Less(t, uint64(state.ValidatorBalances[target]), uint64(balanceBefore))
	require.NotEqual(t, types.Epoch(params.FarFutureEpoch), state.ValidatorRegistry[target].WithdrawableEpoch)

	// Slashing twice is rejected.
	require.Error(t, s.SlashValidator(state, target))
}

func TestEffectiveBalanceCapped(t *testing.T) {
	s := minimalHelpers()
	cfg := s.Spec()
	state := stateWithValidators(cfg, 2)
	state.ValidatorBalances[0] = types.Gwei(cfg.MaxDepositAmount * 3)
	require.Equal(t, types.Gwei(cfg.MaxDepositAmount), s.EffectiveBalance(state, 0))
}

func TestIsCurrentSlot(t *testing.T) {
	s := minimalHelpers()
	state := stateWithValidators(s.Spec(), 1)
	state.GenesisTime = 600
	state.Slot = 15

	slotStart := int64(600+15*s.Spec().SecondsPerSlot) * 1000
	require.True(t, s.IsCurrentSlot(state, slotStart))
	require.True(t, s.IsCurrentSlot(state, slotStart+int64(s.Spec().SecondsPerSlot*1000)-1))
	require.False(t, s.IsCurrentSlot(state, slotStart-1))
	require.False(t, s.IsCurrentSlot(state, slotStart+int64(s.Spec().SecondsPerSlot*1000)))
}

func TestRandaoMixWindow(t *testing.T) {
	s := minimalHelpers()
	state := stateWithValidators(s.Spec(), 1)
	state.Slot = 8 // epoch 1

	_, err := s.RandaoMix(state, 1)
	require.NoError(t, err)
	_, err = s.RandaoMix(state, 2)
	require.Error(t, err)
}
