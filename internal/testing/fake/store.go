package fake

import "go.dedis.ch/ballot/core/store"

var (
	_ store.Snapshot    = (*InMemorySnapshot)(nil)
	_ store.Transaction = (*InMemorySnapshot)(nil)
)

// InMemorySnapshot is a fake implementation of a store snapshot.
//
// - implements store.Snapshot
// - implements store.Transaction
type InMemorySnapshot struct {
	values    map[string][]byte
	callbacks []func()
	ErrRead   error
	ErrWrite  error
	ErrDelete error
}

// NewSnapshot creates a new empty snapshot.
func NewSnapshot() *InMemorySnapshot {
	return &InMemorySnapshot{
		values: make(map[string][]byte),
	}
}

// NewBadSnapshot creates a new empty snapshot that will always return an error.
func NewBadSnapshot() *InMemorySnapshot {
	return &InMemorySnapshot{
		values:    make(map[string][]byte),
		ErrRead:   fakeErr,
		ErrWrite:  fakeErr,
		ErrDelete: fakeErr,
	}
}

// Get implements store.Snapshot.
func (snap *InMemorySnapshot) Get(key []byte) ([]byte, error) {
	return snap.values[string(key)], snap.ErrRead
}

// Set implements store.Snapshot.
func (snap *InMemorySnapshot) Set(key, value []byte) error {
	if snap.ErrWrite != nil {
		return snap.ErrWrite
	}

	snap.values[string(key)] = value

	return nil
}

// Delete implements store.Snapshot.
func (snap *InMemorySnapshot) Delete(key []byte) error {
	if snap.ErrDelete != nil {
		return snap.ErrDelete
	}

	delete(snap.values, string(key))

	return nil
}

// OnCommit implements store.Transaction. The callbacks are only executed when
// Commit is called.
func (snap *InMemorySnapshot) OnCommit(fn func()) {
	snap.callbacks = append(snap.callbacks, fn)
}

// Commit executes the callbacks registered so far.
func (snap *InMemorySnapshot) Commit() {
	for _, fn := range snap.callbacks {
		fn()
	}

	snap.callbacks = nil
}

// Len returns the number of keys in the snapshot.
func (snap *InMemorySnapshot) Len() int {
	return len(snap.values)
}
