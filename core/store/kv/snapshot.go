package kv

import (
	"golang.org/x/xerrors"
)

// Snapshot is a store snapshot backed by a bucket of a writable transaction.
// The values returned by Get are copied as bbolt memory is only valid for the
// lifetime of the transaction.
//
// - implements store.Snapshot
// - implements store.Transaction
type Snapshot struct {
	WritableTx

	bucket Bucket
}

// NewSnapshot returns a snapshot on the bucket of the given name. The bucket
// is created if it does not exist.
func NewSnapshot(tx WritableTx, name []byte) (Snapshot, error) {
	bucket, err := tx.GetBucketOrCreate(name)
	if err != nil {
		return Snapshot{}, xerrors.Errorf("failed to get bucket: %v", err)
	}

	snap := Snapshot{
		WritableTx: tx,
		bucket:     bucket,
	}

	return snap, nil
}

// Get implements store.Readable.
func (s Snapshot) Get(key []byte) ([]byte, error) {
	return copyValue(s.bucket.Get(key)), nil
}

// Set implements store.Writable.
func (s Snapshot) Set(key, value []byte) error {
	return s.bucket.Set(key, value)
}

// Delete implements store.Writable.
func (s Snapshot) Delete(key []byte) error {
	return s.bucket.Delete(key)
}

// ReadOnly is a readable store backed by a database. Each read opens a
// read-only transaction on the bucket.
//
// - implements store.Readable
type ReadOnly struct {
	db   DB
	name []byte
}

// NewReadOnly returns a readable store on the bucket of the given name.
func NewReadOnly(db DB, name []byte) ReadOnly {
	return ReadOnly{
		db:   db,
		name: name,
	}
}

// Get implements store.Readable. A missing bucket reads as empty.
func (r ReadOnly) Get(key []byte) ([]byte, error) {
	var value []byte

	err := r.db.View(func(tx ReadableTx) error {
		bucket := tx.GetBucket(r.name)
		if bucket != nil {
			value = copyValue(bucket.Get(key))
		}

		return nil
	})

	if err != nil {
		return nil, xerrors.Errorf("failed to read db: %v", err)
	}

	return value, nil
}

func copyValue(value []byte) []byte {
	if value == nil {
		return nil
	}

	buffer := make([]byte, len(value))
	copy(buffer, value)

	return buffer
}
