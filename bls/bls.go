// Package bls wraps the BLS12-381 signing oracle. The curve implementation
// is herumi/bls-eth-go-binary; the rest of the core treats signatures and
// keys as opaque values.
package bls

import (
	"encoding/binary"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	herumi "github.com/herumi/bls-eth-go-binary/bls"
	"github.com/pkg/errors"

	"github.com/myaccount-club/beacon-chain/types"
)

var initOnce sync.Once

func ensureInit() {
	initOnce.Do(func() {
		if err := herumi.Init(herumi.BLS12_381); err != nil {
			panic(errors.Wrap(err, "could not initialize BLS12-381"))
		}
		if err := herumi.SetETHmode(herumi.EthModeDraft07); err != nil {
			panic(errors.Wrap(err, "could not set ETH mode"))
		}
	})
}

// SecretKey is a BLS12-381 secret key.
type SecretKey struct {
	k *herumi.SecretKey
}

// PublicKey is a BLS12-381 public key.
type PublicKey struct {
	p *herumi.PublicKey
}

// RandKey generates a fresh random secret key.
func RandKey() *SecretKey {
	ensureInit()
	k := &herumi.SecretKey{}
	k.SetByCSPRNG()
	return &SecretKey{k: k}
}

// SecretKeyFromBytes deserializes a secret key.
func SecretKeyFromBytes(b []byte) (*SecretKey, error) {
	ensureInit()
	k := &herumi.SecretKey{}
	if err := k.Deserialize(b); err != nil {
		return nil, errors.Wrap(err, "could not deserialize secret key")
	}
	return &SecretKey{k: k}, nil
}

// PublicKey derives the public key.
func (s *SecretKey) PublicKey() types.BLSPubkey {
	var out types.BLSPubkey
	copy(out[:], s.k.GetPublicKey().Serialize())
	return out
}

// Sign signs a 32-byte message hash under an 8-byte domain.
func (s *SecretKey) Sign(messageHash types.Hash32, domain uint64) types.BLSSignature {
	sig := s.k.SignByte(domainMessage(messageHash, domain))
	var out types.BLSSignature
	copy(out[:], sig.Serialize())
	return out
}

// PublicKeyFromBytes deserializes a compressed public key.
func PublicKeyFromBytes(pub types.BLSPubkey) (*PublicKey, error) {
	ensureInit()
	p := &herumi.PublicKey{}
	if err := p.Deserialize(pub[:]); err != nil {
		return nil, errors.Wrap(err, "could not deserialize public key")
	}
	return &PublicKey{p: p}, nil
}

// AggregatePubkeys sums public keys. An empty list yields the identity
// point, which verifies only the empty message set.
func AggregatePubkeys(pubs []types.BLSPubkey) (*PublicKey, error) {
	ensureInit()
	agg := &herumi.PublicKey{}
	for _, pub := range pubs {
		p, err := PublicKeyFromBytes(pub)
		if err != nil {
			return nil, err
		}
		agg.Add(p.p)
	}
	return &PublicKey{p: agg}, nil
}

// Verify checks a single signature over a message hash and domain.
func Verify(pub types.BLSPubkey, messageHash types.Hash32, sig types.BLSSignature, domain uint64) bool {
	ensureInit()
	p, err := PublicKeyFromBytes(pub)
	if err != nil {
		return false
	}
	s := &herumi.Sign{}
	if err := s.Deserialize(sig[:]); err != nil {
		return false
	}
	return s.VerifyByte(p.p, domainMessage(messageHash, domain))
}

// VerifyMultiple checks an aggregate signature over per-pubkey messages,
// all under the same domain. Used by the two-message attestation check
// (custody bit 0 and custody bit 1 participant groups).
func VerifyMultiple(pubs []*PublicKey, messageHashes []types.Hash32, sig types.BLSSignature, domain uint64) bool {
	ensureInit()
	if len(pubs) != len(messageHashes) {
		return false
	}
	s := &herumi.Sign{}
	if err := s.Deserialize(sig[:]); err != nil {
		return false
	}
	rawPubs := make([]herumi.PublicKey, len(pubs))
	msgs := make([]byte, 0, len(pubs)*32)
	for i, p := range pubs {
		rawPubs[i] = *p.p
		msgs = append(msgs, domainMessage(messageHashes[i], domain)...)
	}
	return s.AggregateVerifyNoCheck(rawPubs, msgs)
}

// AggregateSignatures sums signatures.
func AggregateSignatures(sigs []types.BLSSignature) (types.BLSSignature, error) {
	ensureInit()
	agg := &herumi.Sign{}
	for _, sig := range sigs {
		s := &herumi.Sign{}
		if err := s.Deserialize(sig[:]); err != nil {
			return types.EmptySignature, errors.Wrap(err, "could not deserialize signature")
		}
		agg.Add(s)
	}
	var out types.BLSSignature
	copy(out[:], agg.Serialize())
	return out, nil
}

// domainMessage binds the domain into the signed message: the 32-byte hash
// and the 8-byte little-endian domain are digested back to the 32 bytes the
// curve library signs over.
func domainMessage(messageHash types.Hash32, domain uint64) []byte {
	buf := make([]byte, 40)
	copy(buf[:32], messageHash[:])
	binary.LittleEndian.PutUint64(buf[32:], domain)
	return crypto.Keccak256(buf)
}
