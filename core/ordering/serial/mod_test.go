package serial

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/ballot/core/execution"
	"go.dedis.ch/ballot/core/ordering"
	"go.dedis.ch/ballot/core/store"
	"go.dedis.ch/ballot/core/store/kv"
	"go.dedis.ch/ballot/core/txn"
	"go.dedis.ch/ballot/core/txn/signed"
	"go.dedis.ch/ballot/core/validation"
	"go.dedis.ch/ballot/core/validation/simple"
	"go.dedis.ch/ballot/crypto/ed25519"
	"go.dedis.ch/ballot/internal/testing/fake"
)

func TestService_Scenario(t *testing.T) {
	db := makeDB(t)

	srvc, err := NewService(db, simple.NewService(testExec{}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evts := srvc.Watch(ctx)

	signer := ed25519.NewSigner()
	mgr := signed.NewManager(signer, nil)

	tx, err := mgr.Make(txn.Arg{Key: "key", Value: []byte("ping")})
	require.NoError(t, err)

	evt, err := srvc.Add(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), evt.Index)
	require.True(t, evt.Accepted)

	select {
	case e := <-evts:
		require.Equal(t, evt, e)
	case <-time.After(time.Second):
		t.Fatal("event not received")
	}

	value, err := srvc.GetStore().Get([]byte("ping"))
	require.NoError(t, err)
	require.Equal(t, []byte("pong"), value)

	// The refused transaction leaves the store untouched.
	tx, err = mgr.Make(txn.Arg{Key: "key", Value: []byte("bad")})
	require.NoError(t, err)

	evt, err = srvc.Add(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), evt.Index)
	require.False(t, evt.Accepted)
	require.Equal(t, "refused", evt.Message)

	value, err = srvc.GetStore().Get([]byte("bad"))
	require.NoError(t, err)
	require.Nil(t, value)

	// Replay of the same transaction is refused because of the nonce.
	evt, err = srvc.Add(ctx, tx)
	require.NoError(t, err)
	require.False(t, evt.Accepted)
	require.Equal(t, "nonce '1' != '2'", evt.Message)

	// The index is restored from the database.
	srvc2, err := NewService(db, simple.NewService(testExec{}))
	require.NoError(t, err)
	require.Equal(t, uint64(3), srvc2.GetIndex())
}

func TestService_Add_Failures(t *testing.T) {
	db := makeDB(t)

	srvc, err := NewService(db, simple.NewService(testExec{}))
	require.NoError(t, err)

	ctx := context.Background()

	_, err = srvc.Add(ctx, fakeTx{})
	require.EqualError(t, err, "unsupported transaction 'serial.fakeTx'")

	tx, err := signed.NewTransaction(0, ed25519.NewSigner().GetPublicKey())
	require.NoError(t, err)

	_, err = srvc.Add(ctx, tx)
	require.EqualError(t, err, "failed to verify tx: missing signature")
}

func TestService_Add_ValidationFailure(t *testing.T) {
	db := makeDB(t)

	srvc, err := NewService(db, badValidation{})
	require.NoError(t, err)

	signer := ed25519.NewSigner()
	tx, err := signed.NewManager(signer, nil).Make()
	require.NoError(t, err)

	_, err = srvc.Add(context.Background(), tx)
	require.EqualError(t, err, fake.Err("failed to process tx: validation"))
	require.Equal(t, uint64(0), srvc.index)
}

func TestService_Add_Closed(t *testing.T) {
	srvc, err := NewService(makeDB(t), simple.NewService(testExec{}))
	require.NoError(t, err)

	require.NoError(t, srvc.Close())
	require.EqualError(t, srvc.Close(), "service already closed")

	_, err = srvc.Add(context.Background(), fakeTx{})
	require.EqualError(t, err, "service is closed")

	srvc.closed = false

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = srvc.Add(ctx, fakeTx{})
	require.EqualError(t, err, "context: context canceled")
}

func TestService_Watch(t *testing.T) {
	srvc, err := NewService(makeDB(t), simple.NewService(testExec{}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	srvc.Watch(ctx)
	require.Equal(t, 1, srvc.watcher.(interface{ Len() int }).Len())

	cancel()

	require.Eventually(t, func() bool {
		return srvc.watcher.(interface{ Len() int }).Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestObserver_NotifyCallback(t *testing.T) {
	obs := observer{ch: make(chan ordering.Event, 1)}

	obs.NotifyCallback(ordering.Event{Index: 1})
	// The channel is full so the second event is dropped.
	obs.NotifyCallback(ordering.Event{Index: 2})

	require.Equal(t, uint64(1), (<-obs.ch).Index)
	require.Len(t, obs.ch, 0)
}

// -----------------------------------------------------------------------------
// Utility functions

func makeDB(t *testing.T) kv.DB {
	db, err := kv.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return db
}

// testExec writes "pong" under the key given as argument, and refuses the
// key "bad".
type testExec struct{}

func (testExec) Execute(snap store.Snapshot, step execution.Step) (execution.Result, error) {
	key := step.Current.GetArg("key")

	err := snap.Set(key, []byte("pong"))
	if err != nil {
		return execution.Result{}, err
	}

	if string(key) == "bad" {
		return execution.Result{Message: "refused"}, nil
	}

	return execution.Result{Accepted: true}, nil
}

type badValidation struct {
	validation.Service
}

func (badValidation) Validate(store.Snapshot, []txn.Transaction) (validation.Result, error) {
	return nil, fake.GetError()
}

type fakeTx struct {
	txn.Transaction
}
