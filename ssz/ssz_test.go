package ssz

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func testHash(data []byte) [32]byte {
	// Cheap stand-in digest: length-prefixed xor folding. Deterministic and
	// collision-free enough for structural tests.
	var out [32]byte
	binary.LittleEndian.PutUint64(out[:8], uint64(len(data)))
	for i, b := range data {
		out[8+(i%24)] ^= b
	}
	return out
}

func TestEncoderBigEndianIntegers(t *testing.T) {
	e := NewEncoder()
	e.WriteUint16(0x0102)
	e.WriteUint32(0x03040506)
	e.WriteUint64(0x0708090a0b0c0d0e)
	require.Equal(t, []byte{
		0x01, 0x02,
		0x03, 0x04, 0x05, 0x06,
		0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e,
	}, e.Bytes())
}

func TestVarBytesLittleEndianPrefix(t *testing.T) {
	e := NewEncoder()
	e.WriteVarBytes([]byte{0xaa, 0xbb, 0xcc})
	require.Equal(t, []byte{0x03, 0x00, 0x00, 0x00, 0xaa, 0xbb, 0xcc}, e.Bytes())

	d := NewDecoder(e.Bytes())
	out, err := d.ReadVarBytes()
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa, 0xbb, 0xcc}, out)
	require.Equal(t, 0, d.Remaining())
}

func TestDecoderUnderLength(t *testing.T) {
	d := NewDecoder([]byte{0x01})
	_, err := d.ReadUint64()
	require.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestDecoderLengthOverflow(t *testing.T) {
	// Length prefix claims 100 bytes but only 2 follow.
	d := NewDecoder([]byte{0x64, 0x00, 0x00, 0x00, 0x01, 0x02})
	_, err := d.ReadVarBytes()
	require.ErrorIs(t, err, ErrLengthOverflow)
}

func TestPrefixedRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.WritePrefixed(func(nested *Encoder) {
		nested.WriteUint64(42)
		nested.WriteBool(true)
	})

	d := NewDecoder(e.Bytes())
	var v uint64
	var b bool
	err := d.ReadPrefixed(func(nested *Decoder) error {
		var err error
		if v, err = nested.ReadUint64(); err != nil {
			return err
		}
		b, err = nested.ReadBool()
		return err
	})
	require.NoError(t, err)
	require.Equal(t, uint64(42), v)
	require.True(t, b)
}

func TestListRoundTrip(t *testing.T) {
	values := []uint64{1, 2, 3, 4, 5}
	e := NewEncoder()
	e.WriteList(len(values), func(e *Encoder, i int) {
		e.WriteUint64(values[i])
	})

	var decoded []uint64
	d := NewDecoder(e.Bytes())
	err := d.ReadList(func(d *Decoder) error {
		v, err := d.ReadUint64()
		decoded = append(decoded, v)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestUint64RootLittleEndian(t *testing.T) {
	h := NewHasher(testHash)
	root := h.Uint64Root(0x0102030405060708)
	expected := [32]byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}
	require.Equal(t, expected, root)
}

func TestFixedBytesRootPadding(t *testing.T) {
	h := NewHasher(testHash)
	root := h.FixedBytesRoot([]byte{0xaa, 0xbb})
	var expected [32]byte
	expected[0] = 0xaa
	expected[1] = 0xbb
	require.Equal(t, expected, root)
}

func TestMerkleRootEmptyIsZeroChunk(t *testing.T) {
	h := NewHasher(testHash)
	require.Equal(t, [32]byte{}, h.MerkleRoot(nil))
}

func TestMerkleRootOddLevelPadded(t *testing.T) {
	h := NewHasher(testHash)
	a := h.Uint64Root(1)
	b := h.Uint64Root(2)
	c := h.Uint64Root(3)

	// merkle([a b c]) == hash(hash(a||b) || hash(c||zero))
	pair := func(x, y [32]byte) [32]byte {
		buf := make([]byte, 64)
		copy(buf[:32], x[:])
		copy(buf[32:], y[:])
		return testHash(buf)
	}
	expected := pair(pair(a, b), pair(c, [32]byte{}))
	require.Equal(t, expected, h.MerkleRoot([][32]byte{a, b, c}))
}

func TestListRootMixesInLength(t *testing.T) {
	h := NewHasher(testHash)
	a := h.Uint64Root(7)
	oneElement := h.ListRoot([][32]byte{a})
	require.NotEqual(t, h.MerkleRoot([][32]byte{a}), oneElement)
	require.NotEqual(t, h.ListRoot([][32]byte{a, a}), oneElement)
}

func TestContainerRootNoLengthMixin(t *testing.T) {
	h := NewHasher(testHash)
	a := h.Uint64Root(1)
	b := h.Uint64Root(2)
	require.Equal(t, h.MerkleRoot([][32]byte{a, b}), h.ContainerRoot(a, b))
}
