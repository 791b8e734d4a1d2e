// Package ucli implements the cli builder with urfave/cli. The builders write
// directly into the urfave application and commands.
package ucli

import (
	"fmt"

	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/ballot/cli"
)

// Builder is a cli builder that populates an urfave application.
//
// - implements cli.Builder
type Builder struct {
	app *urfave.App
}

// NewBuilder returns a builder of an application. The action runs when no
// command is given and can be nil. The flags are available to every command.
func NewBuilder(name string, action cli.Action, flags ...cli.Flag) cli.Builder {
	app := &urfave.App{
		Name:   name,
		Action: makeAction(action),
		Flags:  buildFlags(flags),
	}

	return &Builder{app: app}
}

// SetCommand implements cli.Builder.
func (b *Builder) SetCommand(name string) cli.CommandBuilder {
	cmd := &urfave.Command{Name: name}
	b.app.Commands = append(b.app.Commands, cmd)

	return cmdBuilder{cmd: cmd}
}

// Build implements cli.Builder. It must be called once.
func (b *Builder) Build() cli.Application {
	b.app.Setup()

	return b.app
}

// cmdBuilder populates an urfave command.
//
// - implements cli.CommandBuilder
type cmdBuilder struct {
	cmd *urfave.Command
}

// SetDescription implements cli.CommandBuilder.
func (b cmdBuilder) SetDescription(value string) {
	b.cmd.Usage = value
}

// SetFlags implements cli.CommandBuilder. It replaces the existing flags.
func (b cmdBuilder) SetFlags(flags ...cli.Flag) {
	b.cmd.Flags = buildFlags(flags)
}

// SetAction implements cli.CommandBuilder.
func (b cmdBuilder) SetAction(action cli.Action) {
	b.cmd.Action = makeAction(action)
}

// SetSubCommand implements cli.CommandBuilder.
func (b cmdBuilder) SetSubCommand(name string) cli.CommandBuilder {
	sub := &urfave.Command{Name: name}
	b.cmd.Subcommands = append(b.cmd.Subcommands, sub)

	return cmdBuilder{cmd: sub}
}

func buildFlags(flags []cli.Flag) []urfave.Flag {
	res := make([]urfave.Flag, len(flags))
	for i, f := range flags {
		res[i] = buildFlag(f)
	}

	return res
}

// buildFlag returns the urfave flag of the definition. It panics for an
// unknown definition as it is a programming error.
func buildFlag(f cli.Flag) urfave.Flag {
	switch e := f.(type) {
	case cli.StringFlag:
		return &urfave.StringFlag{
			Name:     e.Name,
			Usage:    e.Usage,
			Required: e.Required,
			Value:    e.Value,
			EnvVars:  e.EnvVars,
		}
	case cli.StringSliceFlag:
		return &urfave.StringSliceFlag{
			Name:     e.Name,
			Usage:    e.Usage,
			Required: e.Required,
			Value:    urfave.NewStringSlice(e.Value...),
		}
	case cli.DurationFlag:
		return &urfave.DurationFlag{
			Name:     e.Name,
			Usage:    e.Usage,
			Required: e.Required,
			Value:    e.Value,
		}
	case cli.IntFlag:
		return &urfave.IntFlag{
			Name:     e.Name,
			Usage:    e.Usage,
			Required: e.Required,
			Value:    e.Value,
		}
	case cli.BoolFlag:
		return &urfave.BoolFlag{
			Name:     e.Name,
			Usage:    e.Usage,
			Required: e.Required,
			Value:    e.Value,
		}
	default:
		panic(fmt.Sprintf("flag type '%T' not supported", f))
	}
}

func makeAction(action cli.Action) urfave.ActionFunc {
	if action == nil {
		return nil
	}

	return func(ctx *urfave.Context) error {
		return action(ctx)
	}
}
