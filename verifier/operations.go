package verifier

import (
	"github.com/myaccount-club/beacon-chain/bls"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/types"
)

// DepositVerifier checks a single deposit's structure. The merkle branch
// and proof of possession are re-checked by process_deposit inside the
// transition.
type DepositVerifier struct {
	spec *helpers.SpecHelpers
}

// NewDepositVerifier builds the verifier.
func NewDepositVerifier(spec *helpers.SpecHelpers) *DepositVerifier {
	return &DepositVerifier{spec: spec}
}

// Verify applies structural deposit rules.
func (v *DepositVerifier) Verify(deposit types.Deposit, state *types.BeaconState) VerificationResult {
	cfg := v.spec.Spec()
	if uint64(len(deposit.Proof)) != cfg.DepositContractTreeDepth {
		return Failed("deposit proof has %d branches, expected %d", len(deposit.Proof), cfg.DepositContractTreeDepth)
	}
	if deposit.DepositData.Amount < types.Gwei(cfg.MinDepositAmount) {
		return Failed("deposit amount %d is below MIN_DEPOSIT_AMOUNT %d", deposit.DepositData.Amount, cfg.MinDepositAmount)
	}
	leaf := v.spec.HashTreeRoot(deposit.DepositData)
	if !v.spec.VerifyMerkleBranch(leaf, deposit.Proof, cfg.DepositContractTreeDepth, deposit.Index, state.LatestEth1Data.DepositRoot) {
		return Failed("deposit %d merkle branch does not verify", deposit.Index)
	}
	return Passed
}

// VerifyDepositList checks a block's deposit list: at most MAX_DEPOSITS
// entries, included in increasing index order starting exactly at the
// state's deposit index.
func (v *DepositVerifier) VerifyDepositList(deposits []types.Deposit, state *types.BeaconState) VerificationResult {
	cfg := v.spec.Spec()
	if uint64(len(deposits)) > cfg.MaxDeposits {
		return Failed("block carries %d deposits, limit %d", len(deposits), cfg.MaxDeposits)
	}
	if len(deposits) == 0 {
		return Passed
	}
	expectedIndex := state.DepositIndex
	if deposits[0].Index != expectedIndex {
		return Failed("index of the first deposit is incorrect, expected %d but got %d", expectedIndex, deposits[0].Index)
	}
	for _, deposit := range deposits {
		if deposit.Index != expectedIndex {
			return Failed("inclusion order is broken, expected index %d but got %d", expectedIndex, deposit.Index)
		}
		expectedIndex++
	}
	for _, deposit := range deposits {
		if res := v.Verify(deposit, state); !res.IsPassed() {
			return res
		}
	}
	return Passed
}

// VoluntaryExitVerifier checks exit requests.
type VoluntaryExitVerifier struct {
	spec *helpers.SpecHelpers
}

// NewVoluntaryExitVerifier builds the verifier.
func NewVoluntaryExitVerifier(spec *helpers.SpecHelpers) *VoluntaryExitVerifier {
	return &VoluntaryExitVerifier{spec: spec}
}

// Verify applies the voluntary exit rules.
func (v *VoluntaryExitVerifier) Verify(exit types.VoluntaryExit, state *types.BeaconState) VerificationResult {
	if uint64(exit.ValidatorIndex) >= uint64(len(state.ValidatorRegistry)) {
		return Failed("exit validator index %d is out of range", exit.ValidatorIndex)
	}
	validator := state.ValidatorRegistry[exit.ValidatorIndex]
	currentEpoch := v.spec.CurrentEpoch(state)
	if validator.ExitEpoch <= v.spec.DelayedActivationExitEpoch(currentEpoch) {
		return Failed("validator %d has already initiated exit", exit.ValidatorIndex)
	}
	if validator.InitiatedExit {
		return Failed("validator %d has a pending exit", exit.ValidatorIndex)
	}
	if currentEpoch < exit.Epoch {
		return Failed("exit epoch %d has not been reached at epoch %d", exit.Epoch, currentEpoch)
	}
	if v.spec.BLSVerificationEnabled() {
		domain := v.spec.Domain(state.Fork, exit.Epoch, params.DomainExit)
		message := types.Hash32(exit.SigningRootWith(v.spec.Hasher()))
		if !bls.Verify(validator.Pubkey, message, exit.Signature, domain) {
			return Failed("exit signature is invalid for validator %d", exit.ValidatorIndex)
		}
	}
	return Passed
}

// TransferVerifier checks balance transfers.
type TransferVerifier struct {
	spec *helpers.SpecHelpers
}

// NewTransferVerifier builds the verifier.
func NewTransferVerifier(spec *helpers.SpecHelpers) *TransferVerifier {
	return &TransferVerifier{spec: spec}
}

// Verify applies the transfer rules.
func (v *TransferVerifier) Verify(transfer types.Transfer, state *types.BeaconState) VerificationResult {
	if uint64(transfer.From) >= uint64(len(state.ValidatorRegistry)) ||
		uint64(transfer.To) >= uint64(len(state.ValidatorRegistry)) {
		return Failed("transfer names an out-of-range validator")
	}
	if transfer.Slot != state.Slot {
		return Failed("transfer is for slot %d, state is at slot %d", transfer.Slot, state.Slot)
	}
	balance := state.ValidatorBalances[transfer.From]
	if balance < transfer.Amount+transfer.Fee {
		return Failed("validator %d balance %d cannot cover amount %d + fee %d",
			transfer.From, balance, transfer.Amount, transfer.Fee)
	}
	sender := state.ValidatorRegistry[transfer.From]
	currentEpoch := v.spec.CurrentEpoch(state)
	if sender.WithdrawableEpoch > currentEpoch && sender.ActivationEpoch != types.Epoch(params.FarFutureEpoch) {
		return Failed("validator %d is not withdrawable", transfer.From)
	}
	if v.spec.BLSVerificationEnabled() {
		domain := v.spec.Domain(state.Fork, v.spec.SlotToEpoch(transfer.Slot), params.DomainTransfer)
		message := types.Hash32(transfer.SigningRootWith(v.spec.Hasher()))
		if !bls.Verify(transfer.Pubkey, message, transfer.Signature, domain) {
			return Failed("transfer signature is invalid")
		}
	}
	return Passed
}
