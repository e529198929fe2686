package verifier

import (
	"github.com/myaccount-club/beacon-chain/bls"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/types"
)

// BlockVerifier guards the per-block transition: header fields, proposer
// signature, RANDAO reveal, per-category operation limits and every
// operation verifier. Any failure is fatal for the whole block.
type BlockVerifier struct {
	spec              *helpers.SpecHelpers
	attestations      *AttestationVerifier
	proposerSlashings *ProposerSlashingVerifier
	attesterSlashings *AttesterSlashingVerifier
	deposits          *DepositVerifier
	exits             *VoluntaryExitVerifier
	transfers         *TransferVerifier
}

// NewBlockVerifier builds a verifier with all operation verifiers wired.
func NewBlockVerifier(spec *helpers.SpecHelpers) *BlockVerifier {
	return &BlockVerifier{
		spec:              spec,
		attestations:      NewAttestationVerifier(spec),
		proposerSlashings: NewProposerSlashingVerifier(spec),
		attesterSlashings: NewAttesterSlashingVerifier(spec),
		deposits:          NewDepositVerifier(spec),
		exits:             NewVoluntaryExitVerifier(spec),
		transfers:         NewTransferVerifier(spec),
	}
}

// Verify checks a block against the state it is about to be applied to.
// The state must already sit at the block's slot.
func (v *BlockVerifier) Verify(block *types.BeaconBlock, state *types.BeaconState, parentRoot types.Hash32) VerificationResult {
	cfg := v.spec.Spec()

	if block.Slot != state.Slot {
		return Failed("block slot %d does not match state slot %d", block.Slot, state.Slot)
	}
	if uint64(block.Slot) <= cfg.GenesisSlot {
		return Failed("block slot %d is not after GENESIS_SLOT %d", block.Slot, cfg.GenesisSlot)
	}
	if block.ParentRoot != parentRoot {
		return Failed("block parent root %s does not match chain head %s", block.ParentRoot, parentRoot)
	}

	proposerIndex, err := v.spec.BeaconProposerIndex(state, state.Slot)
	if err != nil {
		return Failed("could not resolve proposer: %v", err)
	}
	proposer := state.ValidatorRegistry[proposerIndex]
	currentEpoch := v.spec.CurrentEpoch(state)

	if v.spec.BLSVerificationEnabled() {
		// Proposal signature over the block with the signature excluded.
		proposalDomain := v.spec.Domain(state.Fork, currentEpoch, params.DomainProposal)
		signingRoot := v.spec.SigningRoot(block)
		if !bls.Verify(proposer.Pubkey, signingRoot, block.Signature, proposalDomain) {
			return Failed("proposer signature is invalid for proposer %d", proposerIndex)
		}

		// RANDAO reveal signs the current epoch number.
		randaoDomain := v.spec.Domain(state.Fork, currentEpoch, params.DomainRandao)
		epochMessage := types.Hash32(v.spec.Hasher().Uint64Root(uint64(currentEpoch)))
		if !bls.Verify(proposer.Pubkey, epochMessage, block.RandaoReveal, randaoDomain) {
			return Failed("randao reveal is invalid for proposer %d", proposerIndex)
		}
	}

	if res := v.verifyBody(block, state); !res.IsPassed() {
		return res
	}
	return Passed
}

func (v *BlockVerifier) verifyBody(block *types.BeaconBlock, state *types.BeaconState) VerificationResult {
	cfg := v.spec.Spec()
	body := block.Body

	if uint64(len(body.ProposerSlashings)) > cfg.MaxProposerSlashings {
		return Failed("block carries %d proposer slashings, limit %d", len(body.ProposerSlashings), cfg.MaxProposerSlashings)
	}
	if uint64(len(body.AttesterSlashings)) > cfg.MaxAttesterSlashings {
		return Failed("block carries %d attester slashings, limit %d", len(body.AttesterSlashings), cfg.MaxAttesterSlashings)
	}
	if uint64(len(body.Attestations)) > cfg.MaxAttestations {
		return Failed("block carries %d attestations, limit %d", len(body.Attestations), cfg.MaxAttestations)
	}
	if uint64(len(body.VoluntaryExits)) > cfg.MaxVoluntaryExits {
		return Failed("block carries %d exits, limit %d", len(body.VoluntaryExits), cfg.MaxVoluntaryExits)
	}
	if uint64(len(body.Transfers)) > cfg.MaxTransfers {
		return Failed("block carries %d transfers, limit %d", len(body.Transfers), cfg.MaxTransfers)
	}

	for _, slashing := range body.ProposerSlashings {
		if res := v.proposerSlashings.Verify(slashing, state); !res.IsPassed() {
			return res
		}
	}
	for _, slashing := range body.AttesterSlashings {
		if res := v.attesterSlashings.Verify(slashing, state); !res.IsPassed() {
			return res
		}
	}
	for _, attestation := range body.Attestations {
		if res := v.attestations.Verify(attestation, state); !res.IsPassed() {
			return res
		}
	}
	if res := v.deposits.VerifyDepositList(body.Deposits, state); !res.IsPassed() {
		return res
	}
	for _, exit := range body.VoluntaryExits {
		if res := v.exits.Verify(exit, state); !res.IsPassed() {
			return res
		}
	}
	for _, transfer := range body.Transfers {
		if res := v.transfers.Verify(transfer, state); !res.IsPassed() {
			return res
		}
	}
	return Passed
}

// VerifyStateRoot checks the block's state root commitment against the
// post-state produced by applying the block.
func (v *BlockVerifier) VerifyStateRoot(block *types.BeaconBlock, postState *types.BeaconState) VerificationResult {
	actual := v.spec.HashTreeRoot(postState)
	if block.StateRoot != actual {
		return Failed("block state root %s does not match post-state root %s", block.StateRoot, actual)
	}
	return Passed
}
