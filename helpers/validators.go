package helpers

import (
	"github.com/pkg/errors"

	"github.com/myaccount-club/beacon-chain/bls"
	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/types"
)

// DelayedActivationExitEpoch returns the epoch at which an activation or
// exit triggered in epoch takes effect.
func (s *SpecHelpers) DelayedActivationExitEpoch(epoch types.Epoch) types.Epoch {
	return epoch + 1 + types.Epoch(s.cfg.ActivationExitDelay)
}

// ActivateValidator schedules a validator for activation, immediately at
// genesis.
func (s *SpecHelpers) ActivateValidator(state *types.BeaconState, index types.ValidatorIndex, genesis bool) {
	if genesis {
		state.ValidatorRegistry[index].ActivationEpoch = types.Epoch(s.cfg.GenesisEpoch())
	} else {
		state.ValidatorRegistry[index].ActivationEpoch = s.DelayedActivationExitEpoch(s.CurrentEpoch(state))
	}
}

// InitiateValidatorExit flags a validator for exit at the next registry
// rotation.
func (s *SpecHelpers) InitiateValidatorExit(state *types.BeaconState, index types.ValidatorIndex) {
	state.ValidatorRegistry[index].InitiatedExit = true
}

// ExitValidator sets the validator's exit epoch unless an earlier exit is
// already scheduled.
func (s *SpecHelpers) ExitValidator(state *types.BeaconState, index types.ValidatorIndex) {
	effect := s.DelayedActivationExitEpoch(s.CurrentEpoch(state))
	if state.ValidatorRegistry[index].ExitEpoch <= effect {
		return
	}
	state.ValidatorRegistry[index].ExitEpoch = effect
}

// PrepareValidatorForWithdrawal opens the withdrawability window after the
// exit has taken effect.
func (s *SpecHelpers) PrepareValidatorForWithdrawal(state *types.BeaconState, index types.ValidatorIndex) {
	state.ValidatorRegistry[index].WithdrawableEpoch =
		s.CurrentEpoch(state) + types.Epoch(s.cfg.MinValidatorWithdrawabilityDelay)
}

// SlashValidator exits and penalizes a validator, crediting the slot
// proposer as whistleblower. The slashed balance joins the slashed-balances
// ring; the validator becomes withdrawable only after the ring has fully
// rotated.
func (s *SpecHelpers) SlashValidator(state *types.BeaconState, index types.ValidatorIndex) error {
	validator := &state.ValidatorRegistry[index]
	if validator.Slashed {
		return errors.Errorf("validator %d is already slashed", index)
	}
	s.ExitValidator(state, index)

	currentEpoch := s.CurrentEpoch(state)
	effectiveBalance := s.EffectiveBalance(state, index)
	state.LatestSlashedBalances[uint64(currentEpoch)%s.cfg.LatestSlashedExitLength] += effectiveBalance

	whistleblower, err := s.BeaconProposerIndex(state, state.Slot)
	if err != nil {
		return errors.Wrap(err, "could not resolve whistleblower")
	}
	reward := effectiveBalance / types.Gwei(s.cfg.WhistleblowerRewardQuotient)
	state.ValidatorBalances[whistleblower] += reward
	if state.ValidatorBalances[index] > reward {
		state.ValidatorBalances[index] -= reward
	} else {
		state.ValidatorBalances[index] = 0
	}

	validator.Slashed = true
	validator.WithdrawableEpoch = currentEpoch + types.Epoch(s.cfg.LatestSlashedExitLength)
	return nil
}

// VerifyMerkleBranch checks a deposit-tree inclusion proof.
func (s *SpecHelpers) VerifyMerkleBranch(leaf types.Hash32, proof []types.Hash32, depth uint64, index uint64, root types.Hash32) bool {
	if uint64(len(proof)) != depth {
		return false
	}
	computed := leaf
	for i := uint64(0); i < depth; i++ {
		buf := make([]byte, 64)
		if (index>>i)&1 == 1 {
			copy(buf[:32], proof[i][:])
			copy(buf[32:], computed[:])
		} else {
			copy(buf[:32], computed[:])
			copy(buf[32:], proof[i][:])
		}
		computed = s.Hash(buf)
	}
	return computed == root
}

// ValidatorIndexByPubkey finds a registry entry by public key.
func ValidatorIndexByPubkey(registry []types.ValidatorRecord, pubkey types.BLSPubkey) (types.ValidatorIndex, bool) {
	for i, v := range registry {
		if v.Pubkey == pubkey {
			return types.ValidatorIndex(i), true
		}
	}
	return 0, false
}

// PubkeysOf maps validator indices to their registry public keys.
func PubkeysOf(state *types.BeaconState, indices []types.ValidatorIndex) []types.BLSPubkey {
	pubs := make([]types.BLSPubkey, len(indices))
	for i, index := range indices {
		pubs[i] = state.ValidatorRegistry[index].Pubkey
	}
	return pubs
}

// ProcessDeposit validates a deposit against the eth1 snapshot and either
// appends a fresh validator or tops up an existing one. The registry and
// balance lists grow in lockstep.
func (s *SpecHelpers) ProcessDeposit(state *types.BeaconState, deposit types.Deposit) error {
	leaf := s.HashTreeRoot(deposit.DepositData)
	if !s.VerifyMerkleBranch(leaf, deposit.Proof, s.cfg.DepositContractTreeDepth, deposit.Index, state.LatestEth1Data.DepositRoot) {
		return errors.Errorf("deposit %d has a bad merkle branch", deposit.Index)
	}
	if deposit.Index != state.DepositIndex {
		return errors.Errorf("deposit index %d does not match state deposit index %d", deposit.Index, state.DepositIndex)
	}

	input := deposit.DepositData.DepositInput
	if s.blsVerify {
		domain := s.Domain(state.Fork, s.CurrentEpoch(state), params.DomainDeposit)
		message := types.Hash32(input.SigningRootWith(s.hasher))
		if !bls.Verify(input.Pubkey, message, input.ProofOfPossession, domain) {
			return errors.Errorf("deposit %d has an invalid proof of possession", deposit.Index)
		}
	}

	if index, ok := ValidatorIndexByPubkey(state.ValidatorRegistry, input.Pubkey); ok {
		if state.ValidatorRegistry[index].WithdrawalCredentials != input.WithdrawalCredentials {
			return errors.Errorf("deposit %d withdrawal credentials mismatch for validator %d", deposit.Index, index)
		}
		state.ValidatorBalances[index] += deposit.DepositData.Amount
	} else {
		state.ValidatorRegistry = append(state.ValidatorRegistry, types.ValidatorRecord{
			Pubkey:                input.Pubkey,
			WithdrawalCredentials: input.WithdrawalCredentials,
			ActivationEpoch:       types.Epoch(params.FarFutureEpoch),
			ExitEpoch:             types.Epoch(params.FarFutureEpoch),
			WithdrawableEpoch:     types.Epoch(params.FarFutureEpoch),
		})
		state.ValidatorBalances = append(state.ValidatorBalances, deposit.DepositData.Amount)
	}
	state.DepositIndex++
	return nil
}
