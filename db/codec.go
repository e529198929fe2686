package db

import (
	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/myaccount-club/beacon-chain/ssz"
)

// EncodeValue serializes a record for storage: canonical encoding wrapped
// in snappy block compression.
func EncodeValue(v ssz.Marshaler) []byte {
	return snappy.Encode(nil, ssz.Marshal(v))
}

// DecodeValue reverses EncodeValue.
func DecodeValue(data []byte, v ssz.Unmarshaler) error {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return errors.Wrap(err, "could not decompress stored value")
	}
	if err := ssz.Unmarshal(raw, v); err != nil {
		return errors.Wrap(err, "could not decode stored value")
	}
	return nil
}
