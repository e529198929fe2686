package observer

import (
	"sync"

	"github.com/myaccount-club/beacon-chain/types"
)

// OperationPool is the in-memory PendingOperations implementation fed by
// locally produced and received operations.
type OperationPool struct {
	mu sync.RWMutex

	attestations      []types.Attestation
	proposerSlashings []types.ProposerSlashing
	attesterSlashings []types.AttesterSlashing
	voluntaryExits    []types.VoluntaryExit
	transfers         []types.Transfer
}

// NewOperationPool returns an empty pool.
func NewOperationPool() *OperationPool {
	return &OperationPool{}
}

// AddAttestation queues an attestation for inclusion.
func (p *OperationPool) AddAttestation(a types.Attestation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attestations = append(p.attestations, a)
}

// AddProposerSlashing queues proposer slashing evidence.
func (p *OperationPool) AddProposerSlashing(s types.ProposerSlashing) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.proposerSlashings = append(p.proposerSlashings, s)
}

// AddAttesterSlashing queues attester slashing evidence.
func (p *OperationPool) AddAttesterSlashing(s types.AttesterSlashing) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attesterSlashings = append(p.attesterSlashings, s)
}

// AddVoluntaryExit queues an exit request.
func (p *OperationPool) AddVoluntaryExit(e types.VoluntaryExit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voluntaryExits = append(p.voluntaryExits, e)
}

// AddTransfer queues a transfer.
func (p *OperationPool) AddTransfer(t types.Transfer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transfers = append(p.transfers, t)
}

// PruneAttestations drops attestations at or before slot, typically once
// they can no longer satisfy the inclusion window.
func (p *OperationPool) PruneAttestations(slot types.Slot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.attestations[:0]
	for _, a := range p.attestations {
		if a.Data.Slot > slot {
			kept = append(kept, a)
		}
	}
	p.attestations = kept
}

// Attestations implements PendingOperations.
func (p *OperationPool) Attestations(max uint64) []types.Attestation {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]types.Attestation(nil), capAttestations(p.attestations, max)...)
}

// ProposerSlashings implements PendingOperations.
func (p *OperationPool) ProposerSlashings(max uint64) []types.ProposerSlashing {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := capLen(len(p.proposerSlashings), max)
	return append([]types.ProposerSlashing(nil), p.proposerSlashings[:n]...)
}

// AttesterSlashings implements PendingOperations.
func (p *OperationPool) AttesterSlashings(max uint64) []types.AttesterSlashing {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := capLen(len(p.attesterSlashings), max)
	return append([]types.AttesterSlashing(nil), p.attesterSlashings[:n]...)
}

// VoluntaryExits implements PendingOperations.
func (p *OperationPool) VoluntaryExits(max uint64) []types.VoluntaryExit {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := capLen(len(p.voluntaryExits), max)
	return append([]types.VoluntaryExit(nil), p.voluntaryExits[:n]...)
}

// Transfers implements PendingOperations.
func (p *OperationPool) Transfers(max uint64) []types.Transfer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := capLen(len(p.transfers), max)
	return append([]types.Transfer(nil), p.transfers[:n]...)
}

func capLen(n int, max uint64) int {
	if uint64(n) > max {
		return int(max)
	}
	return n
}

func capAttestations(atts []types.Attestation, max uint64) []types.Attestation {
	return atts[:capLen(len(atts), max)]
}

// EmptyPool is a PendingOperations with nothing queued.
type EmptyPool struct{}

func (EmptyPool) Attestations(uint64) []types.Attestation           { return nil }
func (EmptyPool) ProposerSlashings(uint64) []types.ProposerSlashing { return nil }
func (EmptyPool) AttesterSlashings(uint64) []types.AttesterSlashing { return nil }
func (EmptyPool) VoluntaryExits(uint64) []types.VoluntaryExit       { return nil }
func (EmptyPool) Transfers(uint64) []types.Transfer                 { return nil }
