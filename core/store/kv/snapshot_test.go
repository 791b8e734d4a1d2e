package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/ballot/internal/testing/fake"
)

func TestSnapshot_Get_Set_Delete(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	defer db.Close()

	calls := fake.NewCall()

	err = db.Update(func(tx WritableTx) error {
		snap, err := NewSnapshot(tx, []byte("bucket"))
		require.NoError(t, err)

		require.NoError(t, snap.Set([]byte("A"), []byte{1}))
		require.NoError(t, snap.Set([]byte("B"), []byte{2}))
		require.NoError(t, snap.Delete([]byte("B")))

		value, err := snap.Get([]byte("A"))
		require.NoError(t, err)
		require.Equal(t, []byte{1}, value)

		value, err = snap.Get([]byte("B"))
		require.NoError(t, err)
		require.Nil(t, value)

		snap.OnCommit(func() { calls.Add("commit") })

		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls.Len())

	err = db.Update(func(tx WritableTx) error {
		_, err := NewSnapshot(tx, nil)
		return err
	})
	require.EqualError(t, err,
		"failed to get bucket: failed to create bucket: bucket name required")
}

func TestReadOnly_Get(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	ro := NewReadOnly(db, []byte("bucket"))

	value, err := ro.Get([]byte("A"))
	require.NoError(t, err)
	require.Nil(t, value)

	err = db.Update(func(tx WritableTx) error {
		snap, err := NewSnapshot(tx, []byte("bucket"))
		require.NoError(t, err)

		return snap.Set([]byte("A"), []byte{1})
	})
	require.NoError(t, err)

	value, err = ro.Get([]byte("A"))
	require.NoError(t, err)
	require.Equal(t, []byte{1}, value)

	require.NoError(t, db.Close())

	_, err = ro.Get([]byte("A"))
	require.EqualError(t, err, "failed to read db: database not open")
}
