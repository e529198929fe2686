package bls

import "github.com/myaccount-club/beacon-chain/types"

// Signer is the message signing oracle handed to the proposer and attester.
type Signer interface {
	// Sign signs a 32-byte message hash under an 8-byte domain.
	Sign(messageHash types.Hash32, domain uint64) types.BLSSignature
	// Pubkey returns the public key the produced signatures verify under.
	Pubkey() types.BLSPubkey
}

// Credentials bind a validator pubkey to its signer.
type Credentials struct {
	pubkey types.BLSPubkey
	signer Signer
}

// NewCredentials builds credentials from a signer.
func NewCredentials(signer Signer) *Credentials {
	return &Credentials{pubkey: signer.Pubkey(), signer: signer}
}

// Pubkey returns the validator public key.
func (c *Credentials) Pubkey() types.BLSPubkey { return c.pubkey }

// Signer returns the signing oracle.
func (c *Credentials) Signer() Signer { return c.signer }

// keySigner signs with an in-memory secret key.
type keySigner struct {
	key *SecretKey
	pub types.BLSPubkey
}

// NewKeySigner wraps a secret key as a Signer.
func NewKeySigner(key *SecretKey) Signer {
	return &keySigner{key: key, pub: key.PublicKey()}
}

func (s *keySigner) Sign(messageHash types.Hash32, domain uint64) types.BLSSignature {
	return s.key.Sign(messageHash, domain)
}

func (s *keySigner) Pubkey() types.BLSPubkey { return s.pub }
