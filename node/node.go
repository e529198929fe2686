// Package node wires storage, chain, observer and validator service into a
// single in-process beacon node driven by a scheduler clock.
package node

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/myaccount-club/beacon-chain/bls"
	"github.com/myaccount-club/beacon-chain/chain"
	"github.com/myaccount-club/beacon-chain/chain/observer"
	"github.com/myaccount-club/beacon-chain/db"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/pow"
	"github.com/myaccount-club/beacon-chain/schedulers"
	"github.com/myaccount-club/beacon-chain/transition"
	"github.com/myaccount-club/beacon-chain/validator"
	"github.com/myaccount-club/beacon-chain/verifier"
)

var log = logrus.WithField("prefix", "node")

// Config carries the node's collaborators.
type Config struct {
	Spec            *helpers.SpecHelpers
	KV              db.KeyValue
	DepositContract pow.DepositContract
	Credentials     []*bls.Credentials
	Schedulers      schedulers.Schedulers
}

// Node is the top-level in-process beacon node.
type Node struct {
	cfg Config

	blocks    *chain.BlockStorage
	tuples    *chain.TupleStorage
	headFn    *chain.LMDGhostHeadFunction
	beacon    *chain.MutableBeaconChain
	processor *observer.StateProcessor
	pool      *observer.OperationPool
	service   *validator.MultiValidatorService

	stop chan struct{}
}

// New wires a node from its collaborators.
func New(cfg Config) *Node {
	spec := cfg.Spec

	blocks := chain.NewBlockStorage(cfg.KV, spec)
	tuples := chain.NewTupleStorage(cfg.KV, blocks, spec)
	headFn := chain.NewLMDGhostHeadFunction(blocks, tuples, spec)

	perSlot := transition.NewPerSlotTransition(spec)
	perEpoch := transition.NewPerEpochTransition(spec)
	perBlock := transition.NewPerBlockTransition(spec)
	slots := transition.NewExtendedSlotTransition(perSlot, perEpoch, spec)

	blockVerifier := verifier.NewBlockVerifier(spec)
	beacon := chain.NewMutableBeaconChain(spec, blocks, tuples, blockVerifier, slots, perBlock)

	pool := observer.NewOperationPool()
	processor := observer.NewStateProcessor(spec, blocks, tuples, headFn, slots, pool, cfg.Schedulers.CurrentTime)

	proposer := validator.NewProposer(spec, perBlock, cfg.DepositContract)
	attester := validator.NewAttester(spec)
	service := validator.NewMultiValidatorService(
		cfg.Credentials,
		proposer,
		attester,
		spec,
		processor.StatesStream().Subscribe(),
		cfg.Schedulers,
	)

	return &Node{
		cfg:       cfg,
		blocks:    blocks,
		tuples:    tuples,
		headFn:    headFn,
		beacon:    beacon,
		processor: processor,
		pool:      pool,
		service:   service,
		stop:      make(chan struct{}),
	}
}

// Start seeds the chain from the chain-start event and begins processing.
func (n *Node) Start(chainStart pow.ChainStart) error {
	spec := n.cfg.Spec

	genesisBlock := transition.EmptyGenesisBlock(spec)
	genesisState, err := transition.NewInitialTransition(chainStart, spec).Apply(genesisBlock)
	if err != nil {
		return err
	}

	// Imported tuples refresh the observable state.
	tupleSub := n.beacon.BlockStatesStream().Subscribe()
	go func() {
		for {
			select {
			case <-n.stop:
				return
			case tuple, ok := <-tupleSub:
				if !ok {
					return
				}
				n.processor.OnBlockImported(tuple)
			}
		}
	}()

	// Produced blocks and attestations feed straight back into the chain
	// and the fork choice.
	blockSub := n.service.ProposedBlocksStream().Subscribe()
	attSub := n.service.AttestationsStream().Subscribe()
	go func() {
		for {
			select {
			case <-n.stop:
				return
			case block, ok := <-blockSub:
				if !ok {
					return
				}
				if _, err := n.beacon.Insert(block); err != nil {
					log.WithError(err).Warn("Could not insert proposed block")
				}
			case attestation, ok := <-attSub:
				if !ok {
					return
				}
				if err := n.headFn.AddAttestation(attestation); err != nil {
					log.WithError(err).Warn("Could not account attestation")
				} else {
					n.pool.AddAttestation(*attestation)
				}
			}
		}
	}()

	n.service.Start()
	n.beacon.Initialize(genesisBlock, genesisState)

	log.WithFields(logrus.Fields{
		"genesisTime": chainStart.GenesisTime,
		"validators":  len(genesisState.State.ValidatorRegistry),
	}).Info("Node started")
	return nil
}

// Tick drives a slot boundary; callers invoke it once per slot.
func (n *Node) Tick() {
	n.processor.OnSlotTick()
}

// RunTicker drives Tick from the wall clock until Stop.
func (n *Node) RunTicker() {
	secondsPerSlot := n.cfg.Spec.Spec().SecondsPerSlot
	ticker := time.NewTicker(time.Duration(secondsPerSlot) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-n.stop:
			return
		case <-ticker.C:
			n.Tick()
		}
	}
}

// Stop halts the node.
func (n *Node) Stop() {
	close(n.stop)
	n.service.Stop()
}

// Chain exposes the insertion path.
func (n *Node) Chain() *chain.MutableBeaconChain { return n.beacon }

// HeadFunction exposes the fork choice engine.
func (n *Node) HeadFunction() *chain.LMDGhostHeadFunction { return n.headFn }

// ValidatorService exposes the duty scheduler.
func (n *Node) ValidatorService() *validator.MultiValidatorService { return n.service }

// Processor exposes the observable state processor.
func (n *Node) Processor() *observer.StateProcessor { return n.processor }
