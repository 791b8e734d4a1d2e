// Package txn defines the input of the ballot commands.
//
// A transaction carries the arguments of a command together with the identity
// of its creator, which the ballot uses as the caller. Each identity numbers
// its transactions with a nonce so that they are applied once and in order.
package txn

import (
	"go.dedis.ch/ballot/core/access"
	"go.dedis.ch/ballot/serde"
)

// Transaction is a signed command waiting to be executed.
type Transaction interface {
	serde.Message
	serde.Fingerprinter

	// GetID returns the digest of the transaction.
	GetID() []byte

	// GetNonce returns the sequence number of the transaction for its
	// identity.
	GetNonce() uint64

	// GetIdentity returns the caller of the command.
	GetIdentity() access.Identity

	// GetArg returns the value of the argument, or nil when it is missing.
	GetArg(key string) []byte
}

// Factory deserializes transactions.
type Factory interface {
	serde.Factory

	TransactionOf(serde.Context, []byte) (Transaction, error)
}

// Arg is a named argument of a command.
type Arg struct {
	Key   string
	Value []byte
}

// Manager creates the transactions of a single identity and keeps track of
// its nonce.
type Manager interface {
	// Make returns a signed transaction with the arguments and the next
	// nonce.
	Make(args ...Arg) (Transaction, error)

	// Sync reads the next nonce from the ordering service.
	Sync() error
}
