// Package ssz implements the canonical byte encoding and the recursive
// tree-hash used for every consensus record.
//
// Encoding rules: fixed-width unsigned integers are big-endian at their
// declared width; byte arrays of declared length are emitted raw;
// variable-length byte arrays carry a 32-bit little-endian length prefix.
// Containers are the concatenation of their fields, prefixed with a 32-bit
// little-endian length when they appear as a sub-value of a list; top-level
// containers carry no outer prefix.
package ssz

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Encode/decode failures. These are invariant violations for the caller: a
// record that fails to round-trip is fatal to the containing transition.
var (
	ErrUnexpectedEOF  = errors.New("ssz: unexpected end of input")
	ErrLengthOverflow = errors.New("ssz: length prefix overflows input")
	ErrTrailingBytes  = errors.New("ssz: trailing bytes after top-level value")
)

// Marshaler is implemented by every record that has a canonical encoding.
type Marshaler interface {
	MarshalSSZTo(e *Encoder)
}

// Unmarshaler is the decoding counterpart of Marshaler.
type Unmarshaler interface {
	UnmarshalSSZFrom(d *Decoder) error
}

// Marshal returns the canonical top-level encoding of v.
func Marshal(v Marshaler) []byte {
	e := NewEncoder()
	v.MarshalSSZTo(e)
	return e.Bytes()
}

// Unmarshal decodes a top-level value and rejects trailing garbage.
func Unmarshal(data []byte, v Unmarshaler) error {
	d := NewDecoder(data)
	if err := v.UnmarshalSSZFrom(d); err != nil {
		return err
	}
	if d.Remaining() != 0 {
		return ErrTrailingBytes
	}
	return nil
}

// Encoder accumulates the canonical encoding of a value.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the accumulated encoding.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// WriteUint8 writes a single byte.
func (e *Encoder) WriteUint8(v uint8) {
	e.buf = append(e.buf, v)
}

// WriteUint16 writes a big-endian 16-bit integer.
func (e *Encoder) WriteUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

// WriteUint32 writes a big-endian 32-bit integer.
func (e *Encoder) WriteUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

// WriteUint64 writes a big-endian 64-bit integer.
func (e *Encoder) WriteUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

// WriteBool writes a boolean as a single 0x00/0x01 byte.
func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

// WriteFixedBytes writes a byte array of declared length raw.
func (e *Encoder) WriteFixedBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// WriteVarBytes writes a variable-length byte array with its 32-bit
// little-endian length prefix.
func (e *Encoder) WriteVarBytes(b []byte) {
	e.writeLength(len(b))
	e.buf = append(e.buf, b...)
}

// WritePrefixed runs fn against a nested encoder and emits its output behind
// a 32-bit little-endian length prefix. Lists and list-embedded containers
// are written through here.
func (e *Encoder) WritePrefixed(fn func(*Encoder)) {
	nested := NewEncoder()
	fn(nested)
	e.writeLength(len(nested.buf))
	e.buf = append(e.buf, nested.buf...)
}

// WriteList writes n elements behind a single length prefix covering their
// total encoded size. Container elements must be written with WritePrefixed
// by the element function.
func (e *Encoder) WriteList(n int, elem func(e *Encoder, i int)) {
	e.WritePrefixed(func(nested *Encoder) {
		for i := 0; i < n; i++ {
			elem(nested, i)
		}
	})
}

func (e *Encoder) writeLength(n int) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(n))
	e.buf = append(e.buf, b[:]...)
}
