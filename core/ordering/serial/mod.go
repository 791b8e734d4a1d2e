// Package serial implements an ordering service that processes the
// transactions one after the other on a single node.
//
// Each transaction is verified, validated and committed inside a single
// database transaction. The events of the processed transactions are
// published to the watchers only after the commit.
package serial

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/ballot"
	"go.dedis.ch/ballot/core"
	"go.dedis.ch/ballot/core/ordering"
	"go.dedis.ch/ballot/core/store"
	"go.dedis.ch/ballot/core/store/kv"
	"go.dedis.ch/ballot/core/txn"
	"go.dedis.ch/ballot/core/validation"
	"golang.org/x/xerrors"
)

var (
	// StoreBucket is the name of the bucket holding the state of the
	// contracts.
	StoreBucket = []byte("ballot:store")

	metaBucket = []byte("ballot:ordering")
	indexKey   = []byte("index")
)

var promTxs = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "ballot_ordering_transactions_total",
	Help: "number of transactions processed by the ordering service",
}, []string{"status"})

func init() {
	ballot.PromCollectors = append(ballot.PromCollectors, promTxs)
}

// verifiable is implemented by the transactions that carry a signature.
type verifiable interface {
	Verify() error
}

// Service is an ordering service that processes one transaction at a time.
//
// - implements ordering.Service
type Service struct {
	sync.Mutex

	db         kv.DB
	validation validation.Service
	watcher    core.Observable
	index      uint64
	closed     bool
}

// NewService creates a new service on top of the database. The index of the
// last processed transaction is restored from the database.
func NewService(db kv.DB, val validation.Service) (*Service, error) {
	srvc := &Service{
		db:         db,
		validation: val,
		watcher:    core.NewWatcher(),
	}

	err := db.View(func(tx kv.ReadableTx) error {
		bucket := tx.GetBucket(metaBucket)
		if bucket == nil {
			return nil
		}

		value := bucket.Get(indexKey)
		if len(value) == 8 {
			srvc.index = binary.LittleEndian.Uint64(value)
		}

		return nil
	})

	if err != nil {
		return nil, xerrors.Errorf("failed to read index: %v", err)
	}

	return srvc, nil
}

// Add implements ordering.Service. It verifies the signature of the
// transaction, then validates it on the store. The writes of an accepted
// transaction are committed together with the new index. A refused
// transaction is not an error: the reason is reported in the event.
func (s *Service) Add(ctx context.Context, tx txn.Transaction) (ordering.Event, error) {
	s.Lock()
	defer s.Unlock()

	if s.closed {
		return ordering.Event{}, xerrors.New("service is closed")
	}

	err := ctx.Err()
	if err != nil {
		return ordering.Event{}, xerrors.Errorf("context: %v", err)
	}

	vtx, ok := tx.(verifiable)
	if !ok {
		return ordering.Event{}, xerrors.Errorf("unsupported transaction '%T'", tx)
	}

	err = vtx.Verify()
	if err != nil {
		return ordering.Event{}, xerrors.Errorf("failed to verify tx: %v", err)
	}

	event := ordering.Event{
		Index:       s.index + 1,
		Transaction: tx,
	}

	err = s.db.Update(func(wtx kv.WritableTx) error {
		snap, err := kv.NewSnapshot(wtx, StoreBucket)
		if err != nil {
			return xerrors.Errorf("store: %v", err)
		}

		res, err := s.validation.Validate(snap, []txn.Transaction{tx})
		if err != nil {
			return xerrors.Errorf("validation: %v", err)
		}

		event.Accepted, event.Message = res.GetTransactionResults()[0].GetStatus()

		meta, err := wtx.GetBucketOrCreate(metaBucket)
		if err != nil {
			return xerrors.Errorf("meta: %v", err)
		}

		buffer := make([]byte, 8)
		binary.LittleEndian.PutUint64(buffer, event.Index)

		err = meta.Set(indexKey, buffer)
		if err != nil {
			return xerrors.Errorf("failed to write index: %v", err)
		}

		wtx.OnCommit(func() {
			s.watcher.Notify(event)
		})

		return nil
	})

	if err != nil {
		return ordering.Event{}, xerrors.Errorf("failed to process tx: %v", err)
	}

	s.index = event.Index

	status := "accepted"
	if !event.Accepted {
		status = "refused"
	}

	promTxs.WithLabelValues(status).Inc()

	ballot.Logger.Debug().
		Uint64("index", event.Index).
		Hex("tx", tx.GetID()).
		Bool("accepted", event.Accepted).
		Str("reason", event.Message).
		Msg("transaction processed")

	return event, nil
}

// GetIndex returns the index of the last processed transaction.
func (s *Service) GetIndex() uint64 {
	s.Lock()
	defer s.Unlock()

	return s.index
}

// GetStore implements ordering.Service. It returns a read-only view of the
// store of the contracts.
func (s *Service) GetStore() store.Readable {
	return kv.NewReadOnly(s.db, StoreBucket)
}

// Watch implements ordering.Service. It returns a channel populated with the
// events until the context is done.
func (s *Service) Watch(ctx context.Context) <-chan ordering.Event {
	ch := make(chan ordering.Event, 100)

	obs := observer{ch: ch}
	s.watcher.Add(obs)

	go func() {
		<-ctx.Done()
		s.watcher.Remove(obs)
	}()

	return ch
}

// Close implements ordering.Service. It stops accepting new transactions.
func (s *Service) Close() error {
	s.Lock()
	defer s.Unlock()

	if s.closed {
		return xerrors.New("service already closed")
	}

	s.closed = true

	return nil
}
