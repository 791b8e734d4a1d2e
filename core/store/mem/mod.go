// Package mem implements an in-memory snapshot of a store.
//
// The snapshot is an overlay on top of a readable parent: the writes are kept
// in memory and the reads fall back to the parent when the key has not been
// touched. The writes are applied to another store only when asked, which
// allows a caller to discard the work of a refused transaction.
package mem

import (
	"sort"

	"go.dedis.ch/ballot/core/store"
	"golang.org/x/xerrors"
)

// item is a value of the overlay. A deleted item hides the value of the
// parent.
type item struct {
	value   []byte
	deleted bool
}

// Snapshot is an in-memory overlay of a readable store.
//
// - implements store.Snapshot
// - implements store.Transaction
type Snapshot struct {
	parent    store.Readable
	items     map[string]item
	callbacks []func()
}

// NewSnapshot returns a new empty snapshot on top of the parent. The parent
// can be nil.
func NewSnapshot(parent store.Readable) *Snapshot {
	return &Snapshot{
		parent: parent,
		items:  make(map[string]item),
	}
}

// Get implements store.Readable. It returns the value of the overlay if the
// key has been written, otherwise the value of the parent. A missing key
// returns a nil value.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	it, found := s.items[string(key)]
	if found {
		if it.deleted {
			return nil, nil
		}

		return it.value, nil
	}

	if s.parent == nil {
		return nil, nil
	}

	value, err := s.parent.Get(key)
	if err != nil {
		return nil, xerrors.Errorf("failed to read parent: %v", err)
	}

	return value, nil
}

// Set implements store.Writable. It writes the value in the overlay.
func (s *Snapshot) Set(key, value []byte) error {
	s.items[string(key)] = item{value: value}

	return nil
}

// Delete implements store.Writable. It hides the key in the overlay.
func (s *Snapshot) Delete(key []byte) error {
	s.items[string(key)] = item{deleted: true}

	return nil
}

// OnCommit implements store.Transaction. The callback is kept until the
// snapshot is applied.
func (s *Snapshot) OnCommit(fn func()) {
	s.callbacks = append(s.callbacks, fn)
}

// Len returns the number of keys written or deleted in the overlay.
func (s *Snapshot) Len() int {
	return len(s.items)
}

// Apply writes the overlay into the given store in the order of the keys so
// that the result is deterministic. The commit callbacks are handed over when
// the store supports transactions, otherwise they are dropped.
func (s *Snapshot) Apply(w store.Writable) error {
	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		it := s.items[key]

		var err error
		if it.deleted {
			err = w.Delete([]byte(key))
		} else {
			err = w.Set([]byte(key), it.value)
		}

		if err != nil {
			return xerrors.Errorf("failed to apply key %#x: %v", key, err)
		}
	}

	tx, ok := w.(store.Transaction)
	if ok {
		for _, fn := range s.callbacks {
			tx.OnCommit(fn)
		}
	}

	s.callbacks = nil

	return nil
}
