// This file contains the builder of the node application.

package node

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/ballot"
	"go.dedis.ch/ballot/cli"
	"go.dedis.ch/ballot/cli/ucli"
	"golang.org/x/xerrors"
)

const (
	// AppName is the name of the application.
	AppName = "ballot"

	// EnvConfig is the environment variable that sets the configuration
	// directory when the flag is absent.
	EnvConfig = "BALLOT_CONFIG"

	defaultConfig = ".ballot"
)

// CLIBuilder builds the application of a node. The start command runs the
// initializers and the daemon, and every other action is forwarded to that
// daemon.
//
// - implements node.Builder
// - implements cli.Builder
type CLIBuilder struct {
	cli.Builder

	daemonFactory DaemonFactory
	injector      Injector
	actions       *actionMap
	startFlags    []cli.Flag
	inits         []Initializer
	writer        io.Writer

	// The daemon stops on SIGINT or SIGTERM unless a channel is provided, in
	// which case the caller stops it by sending on the channel.
	enableSignal bool
	sigs         chan os.Signal
}

// NewBuilder returns a builder with the initializers. They are started in
// order, and stopped in reverse order.
func NewBuilder(inits ...Initializer) *CLIBuilder {
	return NewBuilderWithCfg(nil, nil, inits...)
}

// NewBuilderWithCfg returns a builder stopped by the signal channel that
// writes the outputs of the commands to out. Nil values use the defaults.
func NewBuilderWithCfg(sigs chan os.Signal, out io.Writer, inits ...Initializer) *CLIBuilder {
	if out == nil {
		out = os.Stdout
	}

	enabled := sigs == nil
	if enabled {
		sigs = make(chan os.Signal, 1)
	}

	injector := NewInjector()
	actions := &actionMap{}

	configFlag := cli.StringFlag{
		Name:    "config",
		Usage:   "path to the config folder",
		Value:   defaultConfig,
		EnvVars: []string{EnvConfig},
	}

	return &CLIBuilder{
		Builder:  ucli.NewBuilder(AppName, nil, configFlag),
		injector: injector,
		actions:  actions,
		daemonFactory: socketFactory{
			injector: injector,
			actions:  actions,
			out:      out,
		},
		enableSignal: enabled,
		sigs:         sigs,
		inits:        inits,
		writer:       out,
	}
}

// SetStartFlags implements node.Builder.
func (b *CLIBuilder) SetStartFlags(flags ...cli.Flag) {
	b.startFlags = append(b.startFlags, flags...)
}

// MakeAction implements node.Builder. The action sends a request to the
// daemon with the index of the template and the values of the flags of the
// command and its parents.
func (b *CLIBuilder) MakeAction(tmpl ActionTemplate) cli.Action {
	index := b.actions.Set(tmpl)

	return func(c cli.Flags) error {
		client, err := b.daemonFactory.ClientFromContext(c)
		if err != nil {
			return xerrors.Errorf("couldn't make client: %v", err)
		}

		req := request{
			Action: index,
			Flags:  make(FlagSet),
		}

		lookupFlags(req.Flags, c.(*urfave.Context))

		data, err := json.Marshal(req)
		if err != nil {
			return xerrors.Errorf("failed to marshal request: %v", err)
		}

		err = client.Send(data)
		if err != nil {
			return xerrors.Opaque(err)
		}

		return nil
	}
}

// lookupFlags collects the values of the flags of the command, its parents
// and the application. A flag of a command hides the flag with the same name
// of a parent.
func lookupFlags(fset FlagSet, ctx *urfave.Context) {
	for _, ancestor := range ctx.Lineage() {
		if ancestor.Command != nil {
			fill(fset, ancestor.Command.Flags, ancestor)
		}

		if ancestor.App != nil {
			fill(fset, ancestor.App.Flags, ancestor)
		}
	}
}

func fill(fset FlagSet, flags []urfave.Flag, ctx *urfave.Context) {
	for _, flag := range flags {
		names := flag.Names()
		if len(names) == 0 {
			continue
		}

		_, found := fset[names[0]]
		if found {
			continue
		}

		value := ctx.Value(names[0])

		// The slice is only serializable through its values.
		slice, ok := value.(urfave.StringSlice)
		if ok {
			value = slice.Value()
		}

		fset[names[0]] = value
	}
}

// Build implements node.Builder. It lets the initializers set their commands
// then adds the start command.
func (b *CLIBuilder) Build() cli.Application {
	for _, controller := range b.inits {
		controller.SetCommands(b)
	}

	cmd := b.SetCommand("start")
	cmd.SetDescription("start the daemon")
	cmd.SetFlags(b.startFlags...)
	cmd.SetAction(b.start)

	return b.Builder.Build()
}

func (b *CLIBuilder) start(flags cli.Flags) error {
	if b.enableSignal {
		signal.Notify(b.sigs, syscall.SIGINT, syscall.SIGTERM)

		defer signal.Stop(b.sigs)
	}

	dir := flags.Path("config")
	if dir != "" {
		err := os.MkdirAll(dir, 0700)
		if err != nil {
			return xerrors.Errorf("couldn't make path: %v", err)
		}
	}

	daemon, err := b.daemonFactory.DaemonFromContext(flags)
	if err != nil {
		return xerrors.Errorf("couldn't make daemon: %v", err)
	}

	for _, controller := range b.inits {
		err = controller.OnStart(flags, b.injector)
		if err != nil {
			return xerrors.Errorf("couldn't run the controller: %v", err)
		}
	}

	// The socket is bound once every component is ready.
	err = daemon.Listen()
	if err != nil {
		return xerrors.Errorf("couldn't start the daemon: %v", err)
	}

	ballot.Logger.Info().Str("config", dir).Msg("daemon has started")

	<-b.sigs

	// Commands in progress must return before the components stop.
	err = daemon.Close()
	if err != nil {
		return xerrors.Errorf("couldn't close the daemon: %v", err)
	}

	for i := len(b.inits) - 1; i >= 0; i-- {
		err = b.inits[i].OnStop(b.injector)
		if err != nil {
			return xerrors.Errorf("couldn't stop controller: %v", err)
		}
	}

	ballot.Logger.Info().Msg("daemon has been stopped")

	return nil
}

// actionMap assigns an index to each action template, in the order of
// registration.
type actionMap struct {
	list []ActionTemplate
}

func (m *actionMap) Set(a ActionTemplate) uint16 {
	m.list = append(m.list, a)

	return uint16(len(m.list) - 1)
}

// Get returns the template of the index, or nil if it does not exist.
func (m *actionMap) Get(index uint16) ActionTemplate {
	if int(index) >= len(m.list) {
		return nil
	}

	return m.list[index]
}
