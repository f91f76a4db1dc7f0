package dictionary

import (
	"encoding/binary"
	"errors"

	"go.etcd.io/bbolt"
)

// bucketName is the single bucket a Bolt dictionary keeps all its
// key/value pairs in; one dictionary owns one database file, so there
// is no need for more than one.
var bucketName = []byte("dictionary")

// ErrNotFound is returned by Get when key has no value.
var ErrNotFound = errors.New("dictionary: key not found")

// Bolt is a durable, crash-safe key/[]byte dictionary backed by
// go.etcd.io/bbolt, offered as an alternative to ArrayDictionary for
// callers that need random-access updates and deletes rather than
// append-only growth — bbolt's B+ tree and its copy-on-write commit
// protocol cover that case directly, where PagedVector deliberately
// does not.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens (creating if necessary) a bbolt database at path and
// ensures its single bucket exists.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0644, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

func keyBytes(key uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], key)
	return b[:]
}

// Put durably associates key with value, overwriting any prior value.
func (b *Bolt) Put(key uint32, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(keyBytes(key), value)
	})
}

// Get returns the value stored under key, or ErrNotFound if none.
// The returned slice is a copy safe to retain past the call.
func (b *Bolt) Get(key uint32) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get(keyBytes(key))
		if v == nil {
			return ErrNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes key, if present. Deleting an absent key is not an
// error.
func (b *Bolt) Delete(key uint32) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete(keyBytes(key))
	})
}

// Close releases the underlying database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}
