// Package controller implements the initializer that injects the client used
// by the transaction managers to synchronize their nonce.
package controller

import (
	"go.dedis.ch/ballot/cli"
	"go.dedis.ch/ballot/cli/node"
	"go.dedis.ch/ballot/core/access"
	"go.dedis.ch/ballot/core/ordering"
	"go.dedis.ch/ballot/core/txn/signed"
	"go.dedis.ch/ballot/core/validation"
	"golang.org/x/xerrors"
)

type mgrController struct{}

// NewManagerController creates a new controller that will inject a nonce
// client in the context. The actions create a transaction manager for the
// signer of their choice with it.
func NewManagerController() node.Initializer {
	return mgrController{}
}

func (mgrController) SetCommands(node.Builder) {}

func (mgrController) OnStart(flags cli.Flags, inj node.Injector) error {
	var srvc ordering.Service
	err := inj.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var nonceMgr validation.Service
	err = inj.Resolve(&nonceMgr)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	inj.Inject(NewClient(srvc, nonceMgr))

	return nil
}

func (mgrController) OnStop(node.Injector) error {
	return nil
}

// Client reads the nonces from the store of the ordering service.
//
// - implements signed.Client
type Client struct {
	srvc ordering.Service
	mgr  validation.Service
}

// NewClient returns a client reading the nonces of the ordering service.
func NewClient(srvc ordering.Service, mgr validation.Service) Client {
	return Client{
		srvc: srvc,
		mgr:  mgr,
	}
}

// GetNonce implements signed.Client.
func (c Client) GetNonce(ident access.Identity) (uint64, error) {
	store := c.srvc.GetStore()

	nonce, err := c.mgr.GetNonce(store, ident)
	if err != nil {
		return 0, err
	}

	return nonce, nil
}

var _ signed.Client = Client{}
