// Package kv defines the abstraction of the key/value database where the node
// persists the state of the contracts and the metadata of the ordering.
//
// The default implementation runs on bbolt. The contracts never see the
// database directly: the ordering service wraps a bucket of a writable
// transaction into a store snapshot.
package kv

import "go.dedis.ch/ballot/core/store"

// Bucket is a named collection of keys inside a database transaction.
type Bucket interface {
	// Get returns the value of the key, or nil if it does not exist. The value
	// is only valid for the lifetime of the transaction.
	Get(key []byte) []byte

	Set(key, value []byte) error

	Delete(key []byte) error

	// Scan calls the function for every key starting with the prefix, in the
	// byte order of the keys. It stops at the first error.
	Scan(prefix []byte, fn func(k, v []byte) error) error
}

// ReadableTx is a read-only transaction.
type ReadableTx interface {
	// GetBucket returns the bucket of the given name, or nil if it does not
	// exist.
	GetBucket(name []byte) Bucket
}

// WritableTx is a read-write transaction. The commit callbacks run only if
// the transaction is committed.
type WritableTx interface {
	store.Transaction

	ReadableTx

	GetBucketOrCreate(name []byte) (Bucket, error)
}

// DB is the key/value database.
type DB interface {
	View(fn func(ReadableTx) error) error

	// Update runs the function in a writable transaction that is committed
	// when the function returns nil, and rolled back otherwise.
	Update(fn func(WritableTx) error) error

	Close() error
}
