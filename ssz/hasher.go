package ssz

import "encoding/binary"

// HashFn is the 32-byte digest function injected into the hasher. Keccak-256
// by default; callers must agree on a single function across the network.
type HashFn func(data []byte) [32]byte

// Hashable is implemented by records that know their tree-hash layout.
type Hashable interface {
	HashTreeRootWith(h *Hasher) [32]byte
}

const chunkSize = 32

var zeroChunk [chunkSize]byte

// Hasher computes tree-hash roots under an injected digest function.
type Hasher struct {
	hash HashFn
}

// NewHasher returns a hasher over fn.
func NewHasher(fn HashFn) *Hasher {
	return &Hasher{hash: fn}
}

// Hash exposes the raw digest function.
func (h *Hasher) Hash(data []byte) [32]byte {
	return h.hash(data)
}

// HashTreeRoot returns the tree-hash root of v.
func (h *Hasher) HashTreeRoot(v Hashable) [32]byte {
	return v.HashTreeRootWith(h)
}

// Uint64Root hashes a fixed-width integer: zero-padded little-endian,
// right-padded to 32 bytes.
func (h *Hasher) Uint64Root(v uint64) [32]byte {
	var root [32]byte
	binary.LittleEndian.PutUint64(root[:8], v)
	return root
}

// BoolRoot hashes a boolean as a 0/1 integer.
func (h *Hasher) BoolRoot(v bool) [32]byte {
	var root [32]byte
	if v {
		root[0] = 1
	}
	return root
}

// FixedBytesRoot hashes a byte array of declared length: a single
// right-padded chunk for lengths up to 32, a merkle root of 32-byte chunks
// beyond that. No length mix-in.
func (h *Hasher) FixedBytesRoot(b []byte) [32]byte {
	if len(b) <= chunkSize {
		var root [32]byte
		copy(root[:], b)
		return root
	}
	return h.MerkleRoot(chunkify(b))
}

// VarBytesRoot hashes a variable-length byte array: chunked merkle root
// mixed with the byte length.
func (h *Hasher) VarBytesRoot(b []byte) [32]byte {
	return h.MixInLength(h.MerkleRoot(chunkify(b)), uint64(len(b)))
}

// ListRoot hashes a variable-length sequence given its per-element roots.
func (h *Hasher) ListRoot(roots [][32]byte) [32]byte {
	return h.MixInLength(h.MerkleRoot(roots), uint64(len(roots)))
}

// ContainerRoot hashes a record as the merkle root of its field roots in
// declaration order. Truncated signing roots pass the same field roots
// minus the trailing signature.
func (h *Hasher) ContainerRoot(fieldRoots ...[32]byte) [32]byte {
	return h.MerkleRoot(fieldRoots)
}

// MerkleRoot reduces chunks pairwise to a single root. An empty input
// yields the zero chunk; odd levels are padded with the zero chunk.
func (h *Hasher) MerkleRoot(chunks [][32]byte) [32]byte {
	if len(chunks) == 0 {
		return zeroChunk
	}
	level := make([][32]byte, len(chunks))
	copy(level, chunks)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, zeroChunk)
		}
		next := make([][32]byte, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			var pair [2 * chunkSize]byte
			copy(pair[:chunkSize], level[i][:])
			copy(pair[chunkSize:], level[i+1][:])
			next[i/2] = h.hash(pair[:])
		}
		level = next
	}
	return level[0]
}

// MixInLength hashes a root together with a 32-byte little-endian length.
func (h *Hasher) MixInLength(root [32]byte, length uint64) [32]byte {
	var buf [2 * chunkSize]byte
	copy(buf[:chunkSize], root[:])
	binary.LittleEndian.PutUint64(buf[chunkSize:chunkSize+8], length)
	return h.hash(buf[:])
}

func chunkify(b []byte) [][32]byte {
	n := (len(b) + chunkSize - 1) / chunkSize
	chunks := make([][32]byte, n)
	for i := 0; i < n; i++ {
		end := (i + 1) * chunkSize
		if end > len(b) {
			end = len(b)
		}
		copy(chunks[i][:], b[i*chunkSize:end])
	}
	return chunks
}
