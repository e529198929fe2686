package validator

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/myaccount-club/beacon-chain/bls"
	"github.com/myaccount-club/beacon-chain/chain/observer"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/schedulers"
	"github.com/myaccount-club/beacon-chain/stream"
	"github.com/myaccount-club/beacon-chain/transition"
	"github.com/myaccount-club/beacon-chain/types"
)

var log = logrus.WithField("prefix", "validator")

// InitializedValidator is published once a configured pubkey is discovered
// in the registry.
type InitializedValidator struct {
	Index  types.ValidatorIndex
	Pubkey types.BLSPubkey
}

// MultiValidatorService runs several validator identities in one instance.
// All duty decisions and scheduler-state mutations happen on the single
// "validator-service" executor; the one-shot registry lookup runs on the
// blocking executor with latest-wins semantics.
type MultiValidatorService struct {
	spec     *helpers.SpecHelpers
	proposer *BeaconChainProposer
	attester *BeaconChainAttester

	scheds   schedulers.Schedulers
	executor schedulers.Scheduler
	initExec *schedulers.LatestExecutor[*types.BeaconState]

	stateStream <-chan observer.ObservableBeaconState

	mu            sync.RWMutex
	uninitialized map[types.BLSPubkey]*bls.Credentials
	initialized   map[types.ValidatorIndex]*bls.Credentials

	// Owned by the validator-service executor.
	lastProcessedSlot types.Slot
	processedAny      bool
	recentState       *observer.ObservableBeaconState

	blocksStream       *stream.Processor[*types.BeaconBlock]
	attestationsStream *stream.Processor[*types.Attestation]
	initializedStream  *stream.Processor[InitializedValidator]

	stop chan struct{}
}

// NewMultiValidatorService builds the service for a set of credentials.
func NewMultiValidatorService(
	credentials []*bls.Credentials,
	proposer *BeaconChainProposer,
	attester *BeaconChainAttester,
	spec *helpers.SpecHelpers,
	stateStream <-chan observer.ObservableBeaconState,
	scheds schedulers.Schedulers,
) *MultiValidatorService {
	s := &MultiValidatorService{
		spec:               spec,
		proposer:           proposer,
		attester:           attester,
		scheds:             scheds,
		executor:           scheds.NewSingleThreadDaemon("validator-service"),
		stateStream:        stateStream,
		uninitialized:      make(map[types.BLSPubkey]*bls.Credentials, len(credentials)),
		initialized:        make(map[types.ValidatorIndex]*bls.Credentials),
		blocksStream:       stream.NewProcessor[*types.BeaconBlock]("validator.blocks"),
		attestationsStream: stream.NewProcessor[*types.Attestation]("validator.attestations"),
		initializedStream:  stream.NewProcessor[InitializedValidator]("validator.initialized"),
		stop:               make(chan struct{}),
	}
	for _, c := range credentials {
		s.uninitialized[c.Pubkey()] = c
	}
	s.initExec = schedulers.NewLatestExecutor[*types.BeaconState](scheds.Blocking(), s.initFromLatestState)
	return s
}

// Start subscribes to state updates.
func (s *MultiValidatorService) Start() {
	go func() {
		for {
			select {
			case <-s.stop:
				return
			case observable, ok := <-s.stateStream:
				if !ok {
					return
				}
				s.executor.Execute(func() { s.OnNewState(observable) })
			}
		}
	}()
}

// Stop halts state consumption.
func (s *MultiValidatorService) Stop() {
	close(s.stop)
}

// OnNewState connects outer state updates with validator behaviour. States
// not belonging to the current wall-clock slot are discarded.
func (s *MultiValidatorService) OnNewState(observable observer.ObservableBeaconState) {
	if !s.spec.IsCurrentSlot(observable.LatestSlotState.State, s.scheds.CurrentTime()) {
		return
	}
	s.keepRecentState(observable)
	s.processState(observable)
}

func (s *MultiValidatorService) keepRecentState(observable observer.ObservableBeaconState) {
	s.recentState = &observable
}

// processState runs duties once per new slot value.
func (s *MultiValidatorService) processState(observable observer.ObservableBeaconState) {
	state := observable.LatestSlotState.State
	if s.processedAny && state.Slot <= s.lastProcessedSlot {
		return
	}
	s.lastProcessedSlot = state.Slot
	s.processedAny = true

	if !s.isInitialized() {
		s.initExec.NewEvent(state)
	}
	s.runTasks(observable)
}

// runTasks triggers the proposer immediately and schedules attestations for
// the slot midpoint.
func (s *MultiValidatorService) runTasks(observable observer.ObservableBeaconState) {
	stateEx := observable.LatestSlotState
	state := stateEx.State

	// The proposer runs only on empty-slot states: a BLOCK-type state
	// means the slot has already been filled.
	proposerIndex, err := s.spec.BeaconProposerIndex(state, state.Slot)
	if err == nil {
		if s.credentialsOf(proposerIndex) != nil &&
			stateEx.Transition == transition.Slot &&
			!s.isGenesis(state) {
			s.executor.Execute(func() { s.propose(proposerIndex, observable) })
		}
	}

	// Attestations fire halfway through the slot against the then-recent
	// state.
	startAt := s.spec.SlotMiddleTime(state, state.Slot)
	committees, err := s.spec.CrosslinkCommitteesAtSlot(state, state.Slot)
	if err != nil {
		log.WithError(err).Warn("Could not resolve committees for duty scheduling")
		return
	}
	for _, committee := range committees {
		for _, index := range committee.Committee {
			if s.credentialsOf(index) == nil {
				continue
			}
			index := index
			delay := time.Duration(startAt-s.scheds.CurrentTime()) * time.Millisecond
			if delay < 0 {
				delay = 0
			}
			s.executor.ExecuteWithDelay(delay, func() { s.attest(index) })
		}
	}
}

// propose builds and publishes a block for the observed state.
func (s *MultiValidatorService) propose(index types.ValidatorIndex, observable observer.ObservableBeaconState) {
	credentials := s.credentialsOf(index)
	if credentials == nil {
		return
	}
	block, err := s.proposer.Propose(observable, credentials.Signer())
	if err != nil {
		log.WithError(err).WithField("validator", index).Error("Proposal failed")
		return
	}
	s.blocksStream.Send(block)
	log.WithFields(logrus.Fields{
		"validator": index,
		"slot":      block.Slot,
		"block":     s.spec.HashTreeRoot(block).Short(),
	}).Info("Proposed a block")
}

// attest re-reads the recent state at execution time and re-checks
// committee membership, so an attestation scheduled before a re-org is
// skipped rather than signed against a stale committee.
func (s *MultiValidatorService) attest(index types.ValidatorIndex) {
	if s.recentState == nil {
		return
	}
	observable := *s.recentState
	state := observable.LatestSlotState.State

	shard, ok := s.committeeShardOf(index, state)
	credentials := s.credentialsOf(index)
	if !ok || credentials == nil {
		return
	}
	attestation, err := s.attester.Attest(index, shard, observable, credentials.Signer())
	if err != nil {
		log.WithError(err).WithField("validator", index).Error("Attestation failed")
		return
	}
	s.attestationsStream.Send(attestation)
	log.WithFields(logrus.Fields{
		"validator": index,
		"slot":      state.Slot,
		"head":      s.spec.HashTreeRoot(observable.Head).Short(),
	}).Info("Attested to head")
}

// committeeShardOf finds the shard whose committee contains the validator
// at the state's slot.
func (s *MultiValidatorService) committeeShardOf(index types.ValidatorIndex, state *types.BeaconState) (types.Shard, bool) {
	committees, err := s.spec.CrosslinkCommitteesAtSlot(state, state.Slot)
	if err != nil {
		return 0, false
	}
	for _, committee := range committees {
		for _, member := range committee.Committee {
			if member == index {
				return committee.Shard, true
			}
		}
	}
	return 0, false
}

// initFromLatestState binds configured pubkeys to registry indices. Runs on
// the blocking executor; each pubkey initializes exactly once.
func (s *MultiValidatorService) initFromLatestState(state *types.BeaconState) {
	found := make(map[types.ValidatorIndex]*bls.Credentials)

	s.mu.Lock()
	for i, record := range state.ValidatorRegistry {
		if credentials, ok := s.uninitialized[record.Pubkey]; ok {
			delete(s.uninitialized, record.Pubkey)
			found[types.ValidatorIndex(i)] = credentials
		}
	}
	for index, credentials := range found {
		s.initialized[index] = credentials
	}
	done := len(s.uninitialized) == 0
	s.mu.Unlock()

	for index, credentials := range found {
		s.initializedStream.Send(InitializedValidator{Index: index, Pubkey: credentials.Pubkey()})
	}
	if done {
		s.initializedStream.Complete()
	}
	if len(found) > 0 {
		indices := make([]types.ValidatorIndex, 0, len(found))
		for index := range found {
			indices = append(indices, index)
		}
		log.WithField("validators", indices).Info("Initialized validators")
	}
}

func (s *MultiValidatorService) credentialsOf(index types.ValidatorIndex) *bls.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized[index]
}

func (s *MultiValidatorService) isInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.uninitialized) == 0
}

func (s *MultiValidatorService) isGenesis(state *types.BeaconState) bool {
	return uint64(state.Slot) == s.spec.Spec().GenesisSlot
}

// ProposedBlocksStream publishes signed blocks.
func (s *MultiValidatorService) ProposedBlocksStream() *stream.Processor[*types.BeaconBlock] {
	return s.blocksStream
}

// AttestationsStream publishes produced attestations.
func (s *MultiValidatorService) AttestationsStream() *stream.Processor[*types.Attestation] {
	return s.attestationsStream
}

// InitializedStream publishes (index, pubkey) bindings and completes once
// every configured credential is bound.
func (s *MultiValidatorService) InitializedStream() *stream.Processor[InitializedValidator] {
	return s.initializedStream
}

// RecentState exposes the kept state for tests.
func (s *MultiValidatorService) RecentState() *observer.ObservableBeaconState {
	return s.recentState
}

// LastProcessedSlot exposes the duty re-play guard for tests.
func (s *MultiValidatorService) LastProcessedSlot() (types.Slot, bool) {
	return s.lastProcessedSlot, s.processedAny
}
