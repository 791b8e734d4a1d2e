// Package controller implements the initializer of the serial ordering
// service, with the native execution and the validation underneath.
package controller

import (
	"fmt"

	"go.dedis.ch/ballot/cli"
	"go.dedis.ch/ballot/cli/node"
	"go.dedis.ch/ballot/core/execution/native"
	"go.dedis.ch/ballot/core/ordering"
	"go.dedis.ch/ballot/core/ordering/serial"
	"go.dedis.ch/ballot/core/store/kv"
	"go.dedis.ch/ballot/core/validation/simple"
	"golang.org/x/xerrors"
)

// minimal is the initializer that creates the ordering service on top of the
// database of the node.
//
// - implements node.Initializer
type minimal struct{}

// NewController returns a new initializer for the serial ordering.
func NewController() node.Initializer {
	return minimal{}
}

// SetCommands implements node.Initializer. It registers a command to display
// the status of the ordering.
func (minimal) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("ordering")
	cmd.SetDescription("Ordering service administration")

	sub := cmd.SetSubCommand("status")
	sub.SetDescription("Display the index of the last transaction and the contracts")
	sub.SetAction(builder.MakeAction(statusAction{}))
}

// OnStart implements node.Initializer. It creates the execution, the
// validation and the ordering services, and injects them.
func (minimal) OnStart(flags cli.Flags, inj node.Injector) error {
	var db kv.DB
	err := inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	exec := native.NewExecution()
	vs := simple.NewService(exec)

	srvc, err := serial.NewService(db, vs)
	if err != nil {
		return xerrors.Errorf("service: %v", err)
	}

	inj.Inject(exec)
	inj.Inject(vs)
	inj.Inject(srvc)

	return nil
}

// OnStop implements node.Initializer. It closes the ordering service.
func (minimal) OnStop(inj node.Injector) error {
	var srvc ordering.Service
	err := inj.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	err = srvc.Close()
	if err != nil {
		return xerrors.Errorf("while closing service: %v", err)
	}

	return nil
}

// statusAction is an action to display the index of the last processed
// transaction and the contracts that can be executed.
//
// - implements node.ActionTemplate
type statusAction struct{}

// Execute implements node.ActionTemplate.
func (statusAction) Execute(ctx node.Context) error {
	var srvc *serial.Service
	err := ctx.Injector.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var exec *native.Service
	err = ctx.Injector.Resolve(&exec)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	fmt.Fprintf(ctx.Out, "index: %d\n", srvc.GetIndex())

	for _, name := range exec.Names() {
		fmt.Fprintf(ctx.Out, "contract: %s\n", name)
	}

	return nil
}
