// Package simple implements a simple validation service.
//
// The transactions are processed in order. The nonce of the identity is
// checked first, then the transaction is executed on a child snapshot that is
// applied to the parent only when the transaction is accepted. A refused
// transaction therefore leaves no trace except the consumption of its nonce.
package simple

import (
	"encoding/binary"

	"go.dedis.ch/ballot/core/access"
	"go.dedis.ch/ballot/core/execution"
	"go.dedis.ch/ballot/core/store"
	"go.dedis.ch/ballot/core/store/mem"
	"go.dedis.ch/ballot/core/txn"
	"go.dedis.ch/ballot/core/validation"
	"go.dedis.ch/ballot/crypto"
	"golang.org/x/xerrors"
)

// nonceTag separates the keys of the nonces from the keys of the contracts.
var nonceTag = []byte("nonce:")

// Service is a standard validation service that will process the batch and
// update the snapshot accordingly.
//
// - implements validation.Service
type Service struct {
	execution execution.Service
	hashFac   crypto.HashFactory
}

// NewService creates a new validation service.
func NewService(exec execution.Service) Service {
	return Service{
		execution: exec,
		hashFac:   crypto.NewSha256Factory(),
	}
}

// GetNonce implements validation.Service. It returns the nonce expected for
// the next transaction of the identity.
func (s Service) GetNonce(store store.Readable, ident access.Identity) (uint64, error) {
	key, err := s.keyFromIdentity(ident)
	if err != nil {
		return 0, xerrors.Errorf("key: %v", err)
	}

	value, err := store.Get(key)
	if err != nil {
		return 0, xerrors.Errorf("store: %v", err)
	}

	if len(value) != 8 {
		return 0, nil
	}

	return binary.LittleEndian.Uint64(value) + 1, nil
}

// Validate implements validation.Service. It processes the list of transactions
// while updating the snapshot then returns a bundle of the transaction results.
func (s Service) Validate(snap store.Snapshot, txs []txn.Transaction) (validation.Result, error) {
	results := make(Result, len(txs))

	for i, tx := range txs {
		res, err := s.validateTx(snap, txs[:i], tx)
		if err != nil {
			return nil, xerrors.Errorf("tx %#x: %v", tx.GetID()[:4], err)
		}

		results[i] = res
	}

	return results, nil
}

func (s Service) validateTx(snap store.Snapshot, prev []txn.Transaction,
	tx txn.Transaction) (TransactionResult, error) {

	if tx.GetIdentity() == nil {
		return TransactionResult{}, xerrors.New("nonce: missing identity in transaction")
	}

	nonce, err := s.GetNonce(snap, tx.GetIdentity())
	if err != nil {
		return TransactionResult{}, xerrors.Errorf("nonce: %v", err)
	}

	if nonce != tx.GetNonce() {
		return newRefusal(tx, "nonce '%d' != '%d'", tx.GetNonce(), nonce), nil
	}

	child := mem.NewSnapshot(snap)

	step := execution.Step{
		Previous: prev,
		Current:  tx,
	}

	res, err := s.execution.Execute(child, step)
	if err != nil {
		// This is a critical error unrelated to the transaction itself.
		return TransactionResult{}, xerrors.Errorf("failed to execute tx: %v", err)
	}

	if res.Accepted {
		err = child.Apply(snap)
		if err != nil {
			return TransactionResult{}, xerrors.Errorf("failed to apply tx: %v", err)
		}
	}

	err = s.set(snap, tx.GetIdentity(), tx.GetNonce())
	if err != nil {
		return TransactionResult{}, xerrors.Errorf("failed to set nonce: %v", err)
	}

	return NewTransactionResult(tx, res), nil
}

func (s Service) set(snap store.Snapshot, ident access.Identity, nonce uint64) error {
	key, err := s.keyFromIdentity(ident)
	if err != nil {
		return xerrors.Errorf("key: %v", err)
	}

	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, nonce)

	err = snap.Set(key, buffer)
	if err != nil {
		return xerrors.Errorf("store: %v", err)
	}

	return nil
}

func (s Service) keyFromIdentity(ident access.Identity) ([]byte, error) {
	data, err := ident.MarshalText()
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal identity: %v", err)
	}

	key, err := crypto.Digest(s.hashFac, nonceTag, data)
	if err != nil {
		return nil, xerrors.Errorf("failed to hash identity: %v", err)
	}

	return key, nil
}
