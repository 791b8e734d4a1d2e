// Package cli defines the builder of a command-line application, so that each
// component of the node adds its own commands without depending on a
// particular CLI library.
//
//	cmd := builder.SetCommand("voting")
//	cmd.SetDescription("Ballot administration")
//
//	sub := cmd.SetSubCommand("vote")
//	sub.SetFlags(IntFlag{Name: "index", Required: true})
//	sub.SetAction(func(flags Flags) error {
//		fmt.Printf("voting for %d\n", flags.Int("index"))
//		return nil
//	})
//
//	builder.Build().Run(os.Args)
package cli

import (
	"time"
)

// Builder creates the commands of an application, then builds it.
type Builder interface {
	// SetCommand creates a new command with the given name and returns its
	// builder.
	SetCommand(name string) CommandBuilder

	Build() Application
}

// Application is a built application that runs the arguments of the command
// line, including the name of the program.
type Application interface {
	Run(arguments []string) error
}

// CommandBuilder sets the properties of a command.
type CommandBuilder interface {
	SetDescription(value string)

	// SetFlags replaces the flags of the command.
	SetFlags(...Flag)

	// SetAction sets the function called when the command is invoked.
	SetAction(Action)

	// SetSubCommand creates a subcommand and returns its builder.
	SetSubCommand(name string) CommandBuilder
}

// Action is the function executed when a command is invoked.
type Action func(Flags) error

// Flag is implemented by the flag definitions of the package.
type Flag interface {
	Flag()
}

// Flags gives an action the values of the flags of the command and of its
// parents. A missing flag returns the zero value.
type Flags interface {
	String(name string) string

	StringSlice(name string) []string

	Duration(name string) time.Duration

	Path(name string) string

	Int(name string) int

	Bool(name string) bool
}
