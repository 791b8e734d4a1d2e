package signed

import (
	"sync"

	"go.dedis.ch/ballot"
	"go.dedis.ch/ballot/core/access"
	"go.dedis.ch/ballot/core/txn"
	"go.dedis.ch/ballot/crypto"
	"golang.org/x/xerrors"
)

// Client returns the nonce expected for the next transaction of an identity.
type Client interface {
	GetNonce(access.Identity) (uint64, error)
}

// TransactionManager creates the transactions of a signer. It increments the
// nonce after each transaction, and must be synchronized when it starts or
// when a transaction is lost.
//
// - implements txn.Manager
type TransactionManager struct {
	sync.Mutex

	client  Client
	signer  crypto.Signer
	nonce   uint64
	hashFac crypto.HashFactory
}

// NewManager creates a manager for the signer. The nonce starts at zero until
// the manager is synchronized.
func NewManager(signer crypto.Signer, client Client) *TransactionManager {
	return &TransactionManager{
		client:  client,
		signer:  signer,
		hashFac: crypto.NewSha256Factory(),
	}
}

// Make implements txn.Manager.
func (mgr *TransactionManager) Make(args ...txn.Arg) (txn.Transaction, error) {
	mgr.Lock()
	defer mgr.Unlock()

	opts := make([]TransactionOption, 0, len(args)+1)
	for _, arg := range args {
		opts = append(opts, WithArg(arg.Key, arg.Value))
	}

	opts = append(opts, WithHashFactory(mgr.hashFac))

	tx, err := NewTransaction(mgr.nonce, mgr.signer.GetPublicKey(), opts...)
	if err != nil {
		return nil, xerrors.Errorf("failed to create tx: %v", err)
	}

	err = tx.Sign(mgr.signer)
	if err != nil {
		return nil, xerrors.Errorf("failed to sign: %v", err)
	}

	mgr.nonce++

	return tx, nil
}

// Sync implements txn.Manager.
func (mgr *TransactionManager) Sync() error {
	nonce, err := mgr.client.GetNonce(mgr.signer.GetPublicKey())
	if err != nil {
		return xerrors.Errorf("client: %v", err)
	}

	mgr.Lock()
	mgr.nonce = nonce
	mgr.Unlock()

	ballot.Logger.Debug().
		Stringer("identity", mgr.signer.GetPublicKey()).
		Uint64("nonce", nonce).
		Msg("manager synchronized")

	return nil
}
