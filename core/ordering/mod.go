// Package ordering defines the interface of the ordering service. The
// high-level purpose of this service is to decide the order in which the
// transactions are applied to the store.
//
// Every transaction processed by the service produces an event, whether the
// transaction has been accepted or refused.
package ordering

import (
	"context"

	"go.dedis.ch/ballot/core/store"
	"go.dedis.ch/ballot/core/txn"
)

// Event is the event emitted for every processed transaction.
type Event struct {
	// Index is the position of the transaction in the total order, starting
	// from 1.
	Index uint64

	Transaction txn.Transaction

	Accepted bool

	// Message is the reason of a refusal.
	Message string
}

// Service is the interface of an ordering service.
type Service interface {
	// Add processes the transaction and returns the event once it has been
	// committed.
	Add(ctx context.Context, tx txn.Transaction) (Event, error)

	// GetStore returns a read-only view of the store.
	GetStore() store.Readable

	// Watch returns a channel populated with the events of the processed
	// transactions until the context is done.
	Watch(ctx context.Context) <-chan Event

	Close() error
}
