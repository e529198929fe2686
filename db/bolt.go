package db

import (
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// BoltKV is the on-disk KeyValue backed by bbolt.
type BoltKV struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) a bolt database at path.
func OpenBolt(path string) (*BoltKV, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "could not open bolt database")
	}
	return &BoltKV{db: db}, nil
}

// Get implements KeyValue.
func (b *BoltKV) Get(bucket, key []byte) ([]byte, bool, error) {
	var out []byte
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucket)
		if bkt == nil {
			return nil
		}
		if v := bkt.Get(key); v != nil {
			out = make([]byte, len(v))
			copy(out, v)
			found = true
		}
		return nil
	})
	return out, found, err
}

// Put implements KeyValue.
func (b *BoltKV) Put(bucket, key, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists(bucket)
		if err != nil {
			return err
		}
		return bkt.Put(key, value)
	})
}

// Delete implements KeyValue.
func (b *BoltKV) Delete(bucket, key []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucket)
		if bkt == nil {
			return nil
		}
		return bkt.Delete(key)
	})
}

// Close implements KeyValue.
func (b *BoltKV) Close() error {
	return b.db.Close()
}
