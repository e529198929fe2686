package helpers

import "github.com/myaccount-club/beacon-chain/types"

// Domain derives the 8-byte signature domain for an epoch and domain kind:
// the fork version in effect at the epoch in the high 32 bits, the kind in
// the low 32 bits.
//
// Spec pseudocode definition:
//
//	def get_domain(fork, epoch, domain_type) -> int:
//	  return get_fork_version(fork, epoch) * 2**32 + domain_type
func (s *SpecHelpers) Domain(fork types.Fork, epoch types.Epoch, kind uint64) uint64 {
	return fork.VersionAt(epoch)<<32 | kind
}
