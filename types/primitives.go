// Package types defines the beacon chain data model: primitive aliases,
// operation records, blocks and the beacon state, together with their
// canonical encoding and tree-hash layouts.
package types

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/myaccount-club/beacon-chain/ssz"
)

// Primitive aliases. All integers are unsigned fixed-width.
type (
	Slot           uint64
	Epoch          uint64
	Shard          uint64
	ValidatorIndex uint64
	Gwei           uint64
)

// Hash32 is a 32-byte tree-hash root or block hash.
type Hash32 [32]byte

// BLSPubkey is a 48-byte BLS12-381 public key.
type BLSPubkey [48]byte

// BLSSignature is a 96-byte BLS12-381 signature.
type BLSSignature [96]byte

// EmptySignature is the all-zero placeholder signature.
var EmptySignature = BLSSignature{}

// ZeroHash is the all-zero root.
var ZeroHash = Hash32{}

// IsZero reports whether the hash is all zeroes.
func (h Hash32) IsZero() bool { return h == Hash32{} }

// Short returns a short hex representation of the root (first 4 bytes).
func (h Hash32) Short() string {
	return hex.EncodeToString(h[:4])
}

func (h Hash32) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Compare orders two roots lexicographically.
func (h Hash32) Compare(other Hash32) int {
	return bytes.Compare(h[:], other[:])
}

// Short returns a short hex representation of the pubkey.
func (p BLSPubkey) Short() string {
	return hex.EncodeToString(p[:4])
}

// Bitfield is a raw bit set of ceil(n/8) bytes: bit i lives at byte i/8,
// mask 1<<(i%8).
type Bitfield []byte

// BitfieldSize returns the byte length of a bitfield covering bits entries.
func BitfieldSize(bits int) int {
	return (bits + 7) / 8
}

// NewBitfield returns a zeroed bitfield covering bits entries.
func NewBitfield(bits int) Bitfield {
	return make(Bitfield, BitfieldSize(bits))
}

// BitAt reports whether bit i is set. Out-of-range bits read as zero.
func (b Bitfield) BitAt(i int) bool {
	if i/8 >= len(b) {
		return false
	}
	return b[i/8]&(1<<(uint(i)%8)) != 0
}

// SetBitAt sets bit i.
func (b Bitfield) SetBitAt(i int) {
	b[i/8] |= 1 << (uint(i) % 8)
}

// IsZero reports whether no bit is set.
func (b Bitfield) IsZero() bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// HasExcessBits reports whether any bit at or beyond size is set.
func (b Bitfield) HasExcessBits(size int) bool {
	for i := size; i < len(b)*8; i++ {
		if b.BitAt(i) {
			return true
		}
	}
	return false
}

// Copy returns a detached copy of the bitfield.
func (b Bitfield) Copy() Bitfield {
	out := make(Bitfield, len(b))
	copy(out, b)
	return out
}

func (b Bitfield) String() string {
	return fmt.Sprintf("0b%08b", []byte(b))
}

// HashTreeRootWith hashes a 32-byte root as a single chunk.
func (h Hash32) HashTreeRootWith(hh *ssz.Hasher) [32]byte {
	return hh.FixedBytesRoot(h[:])
}

// HashTreeRootWith hashes a pubkey: two chunks, no length mix-in.
func (p BLSPubkey) HashTreeRootWith(hh *ssz.Hasher) [32]byte {
	return hh.FixedBytesRoot(p[:])
}

// HashTreeRootWith hashes a signature: three chunks, no length mix-in.
func (s BLSSignature) HashTreeRootWith(hh *ssz.Hasher) [32]byte {
	return hh.FixedBytesRoot(s[:])
}

func rootsOf(hs []Hash32) [][32]byte {
	roots := make([][32]byte, len(hs))
	for i, v := range hs {
		roots[i] = v
	}
	return roots
}
