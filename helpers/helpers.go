// Package helpers implements the pure spec helper functions over beacon
// state and chain constants. A single SpecHelpers value carries the
// constants bundle, the injected hash function and the object hasher;
// variant behavior (disabled signature verification in tests) is configured
// by composition.
package helpers

import (
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru"

	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/ssz"
	"github.com/myaccount-club/beacon-chain/types"
)

const shufflingCacheSize = 16

// SpecHelpers bundles constants, hashing and verification switches.
type SpecHelpers struct {
	cfg       *params.ChainSpec
	hashFn    ssz.HashFn
	hasher    *ssz.Hasher
	blsVerify bool

	shufflingCache *lru.Cache
}

// Option configures a SpecHelpers value.
type Option func(*SpecHelpers)

// WithHashFn overrides the digest function. All peers must agree on it.
func WithHashFn(fn ssz.HashFn) Option {
	return func(s *SpecHelpers) { s.hashFn = fn }
}

// WithoutBLSVerification disables signature checks; deposits and operations
// validate structurally only. Test configuration.
func WithoutBLSVerification() Option {
	return func(s *SpecHelpers) { s.blsVerify = false }
}

// Keccak256 is the default digest function.
func Keccak256(data []byte) [32]byte {
	var out [32]byte
	copy(out[:], crypto.Keccak256(data))
	return out
}

// New builds a SpecHelpers over the given constants.
func New(cfg *params.ChainSpec, opts ...Option) *SpecHelpers {
	s := &SpecHelpers{
		cfg:       cfg,
		hashFn:    Keccak256,
		blsVerify: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hasher = ssz.NewHasher(s.hashFn)
	cache, err := lru.New(shufflingCacheSize)
	if err != nil {
		panic(err)
	}
	s.shufflingCache = cache
	return s
}

// Spec returns the constants bundle.
func (s *SpecHelpers) Spec() *params.ChainSpec { return s.cfg }

// Hasher returns the object hasher.
func (s *SpecHelpers) Hasher() *ssz.Hasher { return s.hasher }

// BLSVerificationEnabled reports whether signature checks run.
func (s *SpecHelpers) BLSVerificationEnabled() bool { return s.blsVerify }

// Hash applies the injected digest function.
func (s *SpecHelpers) Hash(data []byte) types.Hash32 {
	return types.Hash32(s.hashFn(data))
}

// HashTreeRoot returns the tree-hash root of a record.
func (s *SpecHelpers) HashTreeRoot(v ssz.Hashable) types.Hash32 {
	return types.Hash32(v.HashTreeRootWith(s.hasher))
}

// SigningRoot returns the block root with the signature field excluded.
func (s *SpecHelpers) SigningRoot(b *types.BeaconBlock) types.Hash32 {
	return types.Hash32(b.SigningRootWith(s.hasher))
}
