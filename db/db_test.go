package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/myaccount-club/beacon-chain/ssz"
	"github.com/myaccount-club/beacon-chain/types"
)

func testKV(t *testing.T, kv KeyValue) {
	t.Helper()

	_, ok, err := kv.Get([]byte("bkt"), []byte("missing"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, kv.Put([]byte("bkt"), []byte("k"), []byte("v1")))
	v, ok, err := kv.Get([]byte("bkt"), []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v1"), v)

	require.NoError(t, kv.Put([]byte("bkt"), []byte("k"), []byte("v2")))
	v, _, err = kv.Get([]byte("bkt"), []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), v)

	// Buckets are independent namespaces.
	_, ok, err = kv.Get([]byte("other"), []byte("k"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, kv.Delete([]byte("bkt"), []byte("k")))
	_, ok, err = kv.Get([]byte("bkt"), []byte("k"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()
	defer kv.Close()
	testKV(t, kv)
}

func TestBoltKV(t *testing.T) {
	kv, err := OpenBolt(filepath.Join(t.TempDir(), "beacon.db"))
	require.NoError(t, err)
	defer kv.Close()
	testKV(t, kv)
}

func TestValueCodecRoundTrip(t *testing.T) {
	original := types.Attestation{
		AggregationBitfield: types.Bitfield{0x01},
		Data:                types.AttestationData{Slot: 7, Shard: 2},
		CustodyBitfield:     types.Bitfield{0x00},
	}

	encoded := EncodeValue(original)
	var decoded types.Attestation
	require.NoError(t, DecodeValue(encoded, &decoded))
	require.Equal(t, original, decoded)

	// Corrupt compressed payloads are rejected, not misread.
	require.Error(t, DecodeValue([]byte{0xff, 0x00, 0x01}, &decoded))
}

func TestMemoryKVDetachesValues(t *testing.T) {
	kv := NewMemoryKV()
	value := []byte{1, 2, 3}
	require.NoError(t, kv.Put([]byte("b"), []byte("k"), value))
	value[0] = 9

	stored, _, err := kv.Get([]byte("b"), []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, stored)
}

var _ ssz.Marshaler = types.Attestation{}
