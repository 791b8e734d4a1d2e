// Package validation defines the validator of the transactions submitted to
// the ordering service.
package validation

import (
	"go.dedis.ch/ballot/core/access"
	"go.dedis.ch/ballot/core/store"
	"go.dedis.ch/ballot/core/txn"
)

// TransactionResult is the result of the validation of a single transaction.
type TransactionResult interface {
	GetTransaction() txn.Transaction

	// GetStatus returns true if the transaction is accepted, otherwise false
	// with the reason.
	GetStatus() (bool, string)
}

// Result is the result of the validation of a batch of transactions.
type Result interface {
	GetTransactionResults() []TransactionResult

	// NumAccepted returns the number of accepted transactions of the batch.
	NumAccepted() int
}

// Service is the validation service that will process a batch of transactions
// and apply the accepted ones to the snapshot.
type Service interface {
	// GetNonce returns the nonce expected for the next transaction of the
	// identity.
	GetNonce(store.Readable, access.Identity) (uint64, error)

	// Validate executes the transactions in order and returns the result of
	// each of them.
	Validate(store.Snapshot, []txn.Transaction) (Result, error)
}
