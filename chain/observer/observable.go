// Package observer exposes the observable beacon state: the current chain
// head, the latest per-slot state on top of it and the pool of pending
// operations, refreshed on every slot tick and on every imported block.
package observer

import (
	"github.com/myaccount-club/beacon-chain/transition"
	"github.com/myaccount-club/beacon-chain/types"
)

// ObservableBeaconState is a transient snapshot handed to validators.
// Multiple readers may hold one concurrently while the processor updates
// its reference.
type ObservableBeaconState struct {
	Head              *types.BeaconBlock
	LatestSlotState   *transition.StateEx
	PendingOperations PendingOperations
}

// PendingOperations supplies operations for block construction, each
// bounded by the caller's per-block constant.
type PendingOperations interface {
	Attestations(max uint64) []types.Attestation
	ProposerSlashings(max uint64) []types.ProposerSlashing
	AttesterSlashings(max uint64) []types.AttesterSlashing
	VoluntaryExits(max uint64) []types.VoluntaryExit
	Transfers(max uint64) []types.Transfer
}
