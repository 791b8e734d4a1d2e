// Package execution defines the service that executes the transactions on a
// snapshot of the store.
package execution

import (
	"go.dedis.ch/ballot/core/store"
	"go.dedis.ch/ballot/core/txn"
)

// Step is a context of execution. It contains the transactions executed before
// the current one in the same batch.
type Step struct {
	Previous []txn.Transaction
	Current  txn.Transaction
}

// Result is the result of a transaction execution.
type Result struct {
	// Accepted is the success state of the transaction.
	Accepted bool

	// Message gives a chance to the execution to explain why a transaction has
	// failed.
	Message string
}

// Service is the execution service that defines the primitives to execute a
// transaction.
type Service interface {
	// Execute must apply the transaction to the snapshot and return the result
	// of it. An error is returned only when the execution could not happen,
	// a refused transaction is reported in the result.
	Execute(snap store.Snapshot, step Step) (Result, error)
}
