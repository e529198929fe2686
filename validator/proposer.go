// Package validator implements validator duties: block proposal,
// attestation and the multi-identity duty scheduler.
package validator

import (
	"github.com/pkg/errors"

	"github.com/myaccount-club/beacon-chain/bls"
	"github.com/myaccount-club/beacon-chain/chain/observer"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/pow"
	"github.com/myaccount-club/beacon-chain/transition"
	"github.com/myaccount-club/beacon-chain/types"
)

// BeaconChainProposer builds, executes and signs a block on top of the
// observed head.
type BeaconChainProposer struct {
	spec            *helpers.SpecHelpers
	perBlock        *transition.PerBlockTransition
	depositContract pow.DepositContract
}

// NewProposer wires the proposer.
func NewProposer(spec *helpers.SpecHelpers, perBlock *transition.PerBlockTransition, depositContract pow.DepositContract) *BeaconChainProposer {
	return &BeaconChainProposer{spec: spec, perBlock: perBlock, depositContract: depositContract}
}

// Propose produces a fully populated, signed block for the state's slot.
func (p *BeaconChainProposer) Propose(observable observer.ObservableBeaconState, signer bls.Signer) (*types.BeaconBlock, error) {
	stateEx := observable.LatestSlotState
	state := stateEx.State
	cfg := p.spec.Spec()
	currentEpoch := p.spec.CurrentEpoch(state)

	eth1Data := state.LatestEth1Data
	if latest, ok := p.depositContract.LatestEth1Data(); ok {
		eth1Data = latest
	}

	randaoDomain := p.spec.Domain(state.Fork, currentEpoch, params.DomainRandao)
	epochMessage := types.Hash32(p.spec.Hasher().Uint64Root(uint64(currentEpoch)))
	randaoReveal := signer.Sign(epochMessage, randaoDomain)

	body := types.BeaconBlockBody{
		ProposerSlashings: observable.PendingOperations.ProposerSlashings(cfg.MaxProposerSlashings),
		AttesterSlashings: observable.PendingOperations.AttesterSlashings(cfg.MaxAttesterSlashings),
		Attestations:      observable.PendingOperations.Attestations(cfg.MaxAttestations),
		Deposits:          p.collectDeposits(state, eth1Data),
		VoluntaryExits:    observable.PendingOperations.VoluntaryExits(cfg.MaxVoluntaryExits),
		Transfers:         observable.PendingOperations.Transfers(cfg.MaxTransfers),
	}

	block := types.NewBlock(
		state.Slot,
		p.spec.HashTreeRoot(observable.Head),
		types.ZeroHash,
		randaoReveal,
		eth1Data,
		body,
		types.EmptySignature,
	)

	// The post-state does not depend on the block's state root or
	// signature, so the transition runs against the placeholder block.
	postState, err := p.perBlock.Apply(stateEx, block)
	if err != nil {
		return nil, errors.Wrap(err, "could not execute proposed block")
	}
	block = block.WithStateRoot(p.spec.HashTreeRoot(postState.State))

	proposalDomain := p.spec.Domain(state.Fork, currentEpoch, params.DomainProposal)
	signature := signer.Sign(p.spec.SigningRoot(block), proposalDomain)
	return block.WithSignature(signature), nil
}

// collectDeposits pulls contract deposits continuing exactly at the
// state's deposit index.
func (p *BeaconChainProposer) collectDeposits(state *types.BeaconState, toInclusive types.Eth1Data) []types.Deposit {
	infos := p.depositContract.PeekDeposits(p.spec.Spec().MaxDeposits, state.LatestEth1Data, toInclusive)
	var deposits []types.Deposit
	expected := state.DepositIndex
	for _, info := range infos {
		if info.Deposit.Index != expected {
			continue
		}
		deposits = append(deposits, info.Deposit)
		expected++
	}
	return deposits
}
