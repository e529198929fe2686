// Package pow defines the interface to the proof-of-work deposit contract
// watcher. The core only consumes chain-start events and ordered deposit
// feeds; the watcher itself lives outside this repository.
package pow

import "github.com/myaccount-club/beacon-chain/types"

// ChainStart carries everything the genesis transition needs.
type ChainStart struct {
	GenesisTime     uint64
	Eth1Data        types.Eth1Data
	InitialDeposits []types.Deposit
}

// DepositInfo pairs a deposit with the eth1 snapshot it was read at.
type DepositInfo struct {
	Deposit  types.Deposit
	Eth1Data types.Eth1Data
}

// DepositContract is the deposit-contract oracle consumed by the proposer
// and the genesis transition.
type DepositContract interface {
	// ChainStartEvent blocks until the contract has collected enough
	// deposits to launch the chain.
	ChainStartEvent() <-chan ChainStart
	// PeekDeposits returns up to maxCount deposits in contract order,
	// after fromExclusive and no later than toInclusive.
	PeekDeposits(maxCount uint64, fromExclusive, toInclusive types.Eth1Data) []DepositInfo
	// HasDepositRoot reports whether the given eth1 block carries the
	// deposit root.
	HasDepositRoot(blockHash, depositRoot types.Hash32) bool
	// LatestEth1Data returns the freshest known eth1 snapshot.
	LatestEth1Data() (types.Eth1Data, bool)
}
