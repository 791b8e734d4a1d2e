// Package node builds the command-line application of a ballot node out of
// initializers.
//
// The start command runs every initializer, which injects its components, and
// then opens a daemon on a UNIX socket in the configuration directory. The
// commands created with MakeAction do not run in the process of the CLI: the
// values of their flags are sent to the daemon, which executes the action
// with the injected components and streams the output back.
package node

import (
	"io"

	"go.dedis.ch/ballot/cli"
)

// Builder is given to the initializers to create their commands.
type Builder interface {
	SetCommand(name string) cli.CommandBuilder

	// SetStartFlags adds flags to the start command. Their values are given
	// to the initializers when the node starts.
	SetStartFlags(...cli.Flag)

	// MakeAction returns a CLI action that executes the template on the
	// daemon.
	MakeAction(ActionTemplate) cli.Action
}

// ActionTemplate is an action executed by the daemon.
type ActionTemplate interface {
	Execute(Context) error
}

// Context is the environment of an action executed by the daemon. The output
// is forwarded to the CLI.
type Context struct {
	Injector Injector
	Flags    cli.Flags
	Out      io.Writer
}

// Injector stores the components of the node by type.
type Injector interface {
	// Resolve sets the pointed value to the first injected component that is
	// assignable to it.
	Resolve(interface{}) error

	Inject(interface{})
}

// Initializer sets up a part of the node.
type Initializer interface {
	SetCommands(Builder)

	// OnStart creates the components and injects them.
	OnStart(cli.Flags, Injector) error

	// OnStop releases the components.
	OnStop(Injector) error
}

// Client sends a request to the daemon.
type Client interface {
	Send([]byte) error
}

// Daemon listens for the requests of the clients.
type Daemon interface {
	Listen() error
	Close() error
}

// DaemonFactory creates the daemon and its clients for the flags of a
// command.
type DaemonFactory interface {
	ClientFromContext(cli.Flags) (Client, error)
	DaemonFromContext(cli.Flags) (Daemon, error)
}
