package transition

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/pow"
	"github.com/myaccount-club/beacon-chain/types"
)

var log = logrus.WithField("prefix", "transition")

// InitialTransition produces the genesis state from a chain-start event.
type InitialTransition struct {
	chainStart pow.ChainStart
	spec       *helpers.SpecHelpers
}

// NewInitialTransition builds the genesis transition.
func NewInitialTransition(chainStart pow.ChainStart, spec *helpers.SpecHelpers) *InitialTransition {
	return &InitialTransition{chainStart: chainStart, spec: spec}
}

// Apply derives the genesis state and binds it to the given genesis block.
func (t *InitialTransition) Apply(genesisBlock *types.BeaconBlock) (*StateEx, error) {
	cfg := t.spec.Spec()
	genesisEpoch := types.Epoch(cfg.GenesisEpoch())

	state := &types.BeaconState{
		Slot:        types.Slot(cfg.GenesisSlot),
		GenesisTime: t.chainStart.GenesisTime,
		Fork: types.Fork{
			PreviousVersion: cfg.GenesisForkVersion,
			CurrentVersion:  cfg.GenesisForkVersion,
			Epoch:           genesisEpoch,
		},
		LatestRandaoMixes:      make([]types.Hash32, cfg.LatestRandaoMixesLength),
		LatestCrosslinks:       make([]types.Crosslink, cfg.ShardCount),
		LatestBlockRoots:       make([]types.Hash32, cfg.LatestBlockRootsLength),
		LatestActiveIndexRoots: make([]types.Hash32, cfg.LatestActiveIndexRootsLength),
		LatestSlashedBalances:  make([]types.Gwei, cfg.LatestSlashedExitLength),
		PreviousJustifiedEpoch: genesisEpoch,
		JustifiedEpoch:         genesisEpoch,
		FinalizedEpoch:         genesisEpoch,
		LatestEth1Data:         t.chainStart.Eth1Data,
	}

	for _, deposit := range t.chainStart.InitialDeposits {
		if err := t.spec.ProcessDeposit(state, deposit); err != nil {
			return nil, errors.Wrapf(err, "could not process genesis deposit %d", deposit.Index)
		}
	}

	for i := range state.ValidatorRegistry {
		index := types.ValidatorIndex(i)
		if state.ValidatorBalances[index] >= types.Gwei(cfg.MaxDepositAmount) {
			t.spec.ActivateValidator(state, index, true)
		}
	}

	activeRoot := activeIndexRoot(t.spec, state.ValidatorRegistry, genesisEpoch)
	for i := range state.LatestActiveIndexRoots {
		state.LatestActiveIndexRoots[i] = activeRoot
	}

	log.WithFields(logrus.Fields{
		"genesisTime": t.chainStart.GenesisTime,
		"validators":  len(state.ValidatorRegistry),
	}).Info("Genesis state derived")

	return NewStateEx(state, t.spec.HashTreeRoot(genesisBlock), Initial), nil
}

// EmptyGenesisBlock returns the canonical genesis block: all-zero fields at
// the genesis slot.
func EmptyGenesisBlock(spec *helpers.SpecHelpers) *types.BeaconBlock {
	return types.NewBlock(
		types.Slot(spec.Spec().GenesisSlot),
		types.ZeroHash,
		types.ZeroHash,
		types.EmptySignature,
		types.Eth1Data{},
		types.EmptyBody(),
		types.EmptySignature,
	)
}

// activeIndexRoot hashes the active validator index list at an epoch.
func activeIndexRoot(spec *helpers.SpecHelpers, registry []types.ValidatorRecord, epoch types.Epoch) types.Hash32 {
	active := helpers.ActiveValidatorIndices(registry, epoch)
	roots := make([][32]byte, len(active))
	for i, v := range active {
		roots[i] = spec.Hasher().Uint64Root(uint64(v))
	}
	return types.Hash32(spec.Hasher().ListRoot(roots))
}
