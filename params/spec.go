// Package params holds the chain spec: the immutable bundle of protocol
// parameters that every helper and transition consumes. The bundle is passed
// around explicitly; there is no process-wide config singleton.
package params

// Domain kinds used in signature domain derivation. Concrete values are part
// of the chain spec and must agree across the network.
const (
	DomainDeposit     uint64 = 0
	DomainAttestation uint64 = 1
	DomainProposal    uint64 = 2
	DomainExit        uint64 = 3
	DomainRandao      uint64 = 4
	DomainTransfer    uint64 = 5
)

// FarFutureEpoch is the epoch assigned to registry entries that have no
// scheduled activation, exit or withdrawal yet.
const FarFutureEpoch = ^uint64(0)

// ChainSpec bundles every protocol constant. Field names follow the upstream
// spec; yaml tags allow overriding single values from a spec file.
type ChainSpec struct {
	// Misc.
	ShardCount                 uint64 `yaml:"SHARD_COUNT"`
	TargetCommitteeSize        uint64 `yaml:"TARGET_COMMITTEE_SIZE"`
	MaxBalanceChurnQuotient    uint64 `yaml:"MAX_BALANCE_CHURN_QUOTIENT"`
	BeaconChainShardNumber     uint64 `yaml:"BEACON_CHAIN_SHARD_NUMBER"`
	MaxIndicesPerSlashableVote uint64 `yaml:"MAX_INDICES_PER_SLASHABLE_VOTE"`
	MaxExitDequeuesPerEpoch    uint64 `yaml:"MAX_EXIT_DEQUEUES_PER_EPOCH"`
	ShuffleRoundCount          uint8  `yaml:"SHUFFLE_ROUND_COUNT"`

	// Deposit contract.
	DepositContractTreeDepth uint64 `yaml:"DEPOSIT_CONTRACT_TREE_DEPTH"`
	MinDepositAmount         uint64 `yaml:"MIN_DEPOSIT_AMOUNT"`
	MaxDepositAmount         uint64 `yaml:"MAX_DEPOSIT_AMOUNT"`

	// Initial values.
	GenesisForkVersion uint64 `yaml:"GENESIS_FORK_VERSION"`
	GenesisSlot        uint64 `yaml:"GENESIS_SLOT"`
	GenesisStartShard  uint64 `yaml:"GENESIS_START_SHARD"`

	// Time parameters.
	SecondsPerSlot                   uint64 `yaml:"SECONDS_PER_SLOT"`
	MinAttestationInclusionDelay     uint64 `yaml:"MIN_ATTESTATION_INCLUSION_DELAY"`
	SlotsPerEpoch                    uint64 `yaml:"SLOTS_PER_EPOCH"`
	MinSeedLookahead                 uint64 `yaml:"MIN_SEED_LOOKAHEAD"`
	ActivationExitDelay              uint64 `yaml:"ACTIVATION_EXIT_DELAY"`
	EpochsPerEth1VotingPeriod        uint64 `yaml:"EPOCHS_PER_ETH1_VOTING_PERIOD"`
	MinValidatorWithdrawabilityDelay uint64 `yaml:"MIN_VALIDATOR_WITHDRAWABILITY_DELAY"`

	// State list lengths (ring buffers).
	LatestBlockRootsLength       uint64 `yaml:"LATEST_BLOCK_ROOTS_LENGTH"`
	LatestRandaoMixesLength      uint64 `yaml:"LATEST_RANDAO_MIXES_LENGTH"`
	LatestActiveIndexRootsLength uint64 `yaml:"LATEST_ACTIVE_INDEX_ROOTS_LENGTH"`
	LatestSlashedExitLength      uint64 `yaml:"LATEST_SLASHED_EXIT_LENGTH"`

	// Reward and penalty quotients.
	BaseRewardQuotient                 uint64 `yaml:"BASE_REWARD_QUOTIENT"`
	WhistleblowerRewardQuotient        uint64 `yaml:"WHISTLEBLOWER_REWARD_QUOTIENT"`
	AttestationInclusionRewardQuotient uint64 `yaml:"ATTESTATION_INCLUSION_REWARD_QUOTIENT"`
	InactivityPenaltyQuotient          uint64 `yaml:"INACTIVITY_PENALTY_QUOTIENT"`
	MinPenaltyQuotient                 uint64 `yaml:"MIN_PENALTY_QUOTIENT"`

	// Max operations per block.
	MaxProposerSlashings uint64 `yaml:"MAX_PROPOSER_SLASHINGS"`
	MaxAttesterSlashings uint64 `yaml:"MAX_ATTESTER_SLASHINGS"`
	MaxAttestations      uint64 `yaml:"MAX_ATTESTATIONS"`
	MaxDeposits          uint64 `yaml:"MAX_DEPOSITS"`
	MaxVoluntaryExits    uint64 `yaml:"MAX_VOLUNTARY_EXITS"`
	MaxTransfers         uint64 `yaml:"MAX_TRANSFERS"`
}

// GenesisEpoch returns the epoch the genesis slot belongs to.
func (s *ChainSpec) GenesisEpoch() uint64 {
	return s.GenesisSlot / s.SlotsPerEpoch
}

// MainnetSpec returns the constants used on the main network.
func MainnetSpec() *ChainSpec {
	return &ChainSpec{
		ShardCount:                 1 << 10,
		TargetCommitteeSize:        1 << 7,
		MaxBalanceChurnQuotient:    1 << 5,
		BeaconChainShardNumber:     ^uint64(0),
		MaxIndicesPerSlashableVote: 1 << 12,
		MaxExitDequeuesPerEpoch:    1 << 2,
		ShuffleRoundCount:          90,

		DepositContractTreeDepth: 1 << 5,
		MinDepositAmount:         1 << 0 * 1e9, // 1 ETH
		MaxDepositAmount:         1 << 5 * 1e9, // 32 ETH

		GenesisForkVersion: 0,
		GenesisSlot:        1 << 32,
		GenesisStartShard:  0,

		SecondsPerSlot:                   6,
		MinAttestationInclusionDelay:     1 << 2,
		SlotsPerEpoch:                    1 << 6,
		MinSeedLookahead:                 1 << 0,
		ActivationExitDelay:              1 << 2,
		EpochsPerEth1VotingPeriod:        1 << 4,
		MinValidatorWithdrawabilityDelay: 1 << 8,

		LatestBlockRootsLength:       1 << 13,
		LatestRandaoMixesLength:      1 << 13,
		LatestActiveIndexRootsLength: 1 << 13,
		LatestSlashedExitLength:      1 << 13,

		BaseRewardQuotient:                 1 << 5,
		WhistleblowerRewardQuotient:        1 << 9,
		AttestationInclusionRewardQuotient: 1 << 3,
		InactivityPenaltyQuotient:          1 << 24,
		MinPenaltyQuotient:                 1 << 5,

		MaxProposerSlashings: 1 << 4,
		MaxAttesterSlashings: 1 << 0,
		MaxAttestations:      1 << 7,
		MaxDeposits:          1 << 4,
		MaxVoluntaryExits:    1 << 4,
		MaxTransfers:         1 << 4,
	}
}

// MinimalSpec returns a small configuration suitable for tests and the
// emulator: 8-slot epochs, tiny committees, short rings.
func MinimalSpec() *ChainSpec {
	s := MainnetSpec()
	s.ShardCount = 8
	s.TargetCommitteeSize = 4
	s.SlotsPerEpoch = 8
	s.GenesisSlot = 0
	s.SecondsPerSlot = 6
	s.MinAttestationInclusionDelay = 1
	s.LatestBlockRootsLength = 64
	s.LatestRandaoMixesLength = 64
	s.LatestActiveIndexRootsLength = 64
	s.LatestSlashedExitLength = 64
	s.ShuffleRoundCount = 10
	return s
}
