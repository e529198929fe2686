package ssz

import "encoding/binary"

// Decoder consumes a canonical encoding.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder wraps data for decoding.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{buf: data}
}

// Remaining reports the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

func (d *Decoder) take(n int) ([]byte, error) {
	if d.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

// ReadUint8 reads a single byte.
func (d *Decoder) ReadUint8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads a big-endian 16-bit integer.
func (d *Decoder) ReadUint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadUint32 reads a big-endian 32-bit integer.
func (d *Decoder) ReadUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadUint64 reads a big-endian 64-bit integer.
func (d *Decoder) ReadUint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadBool reads a single-byte boolean.
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// ReadFixedBytes copies a byte array of declared length into dst.
func (d *Decoder) ReadFixedBytes(dst []byte) error {
	b, err := d.take(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// ReadVarBytes reads a length-prefixed byte array.
func (d *Decoder) ReadVarBytes() ([]byte, error) {
	n, err := d.readLength()
	if err != nil {
		return nil, err
	}
	b, err := d.take(n)
	if err != nil {
		return nil, ErrLengthOverflow
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadPrefixed reads a length prefix and decodes its span with fn. The span
// must be fully consumed.
func (d *Decoder) ReadPrefixed(fn func(*Decoder) error) error {
	n, err := d.readLength()
	if err != nil {
		return err
	}
	span, err := d.take(n)
	if err != nil {
		return ErrLengthOverflow
	}
	nested := NewDecoder(span)
	if err := fn(nested); err != nil {
		return err
	}
	if nested.Remaining() != 0 {
		return ErrTrailingBytes
	}
	return nil
}

// ReadList reads a length-prefixed list, invoking elem once per element until
// the span is exhausted.
func (d *Decoder) ReadList(elem func(d *Decoder) error) error {
	n, err := d.readLength()
	if err != nil {
		return err
	}
	span, err := d.take(n)
	if err != nil {
		return ErrLengthOverflow
	}
	nested := NewDecoder(span)
	for nested.Remaining() > 0 {
		if err := elem(nested); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) readLength() (int, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	n := binary.LittleEndian.Uint32(b)
	if int(n) > d.Remaining() {
		return 0, ErrLengthOverflow
	}
	return int(n), nil
}
