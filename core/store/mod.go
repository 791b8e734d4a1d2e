// Package store defines the key/value primitives through which the contracts
// read and write their state.
package store

// Readable gives read access to a store.
type Readable interface {
	// Get returns the value of the key, or nil when the key is missing.
	Get(key []byte) ([]byte, error)
}

// Writable gives write access to a store.
type Writable interface {
	// Set stores the value under the key, replacing any previous one.
	Set(key []byte, value []byte) error

	// Delete removes the key. A missing key is not an error.
	Delete(key []byte) error
}

// Snapshot is a view of the store that can be modified without affecting
// the store until it is applied.
type Snapshot interface {
	Readable
	Writable
}

// Transaction is the atomic update of a store.
type Transaction interface {
	// OnCommit registers a callback that runs once the update is persisted.
	// It never runs when the update is rolled back.
	OnCommit(func())
}
