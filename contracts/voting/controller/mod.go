// Package controller implements the initializer of the voting contract and
// the commands to create ballots, authorize voters and vote.
//
// The commands that modify a ballot are signed by the key stored in the file
// given by the --key flag. A key can be created with the keygen command.
package controller

import (
	"io"
	"os"
	"time"

	"go.dedis.ch/ballot/cli"
	"go.dedis.ch/ballot/cli/node"
	"go.dedis.ch/ballot/contracts/voting"
	"go.dedis.ch/ballot/core/execution/native"
	"go.dedis.ch/ballot/serde/json"
	"golang.org/x/xerrors"
)

const defaultTimeout = 10 * time.Second

var printer io.Writer = os.Stdout

// miniController is a CLI initializer to register the voting contract
//
// - implements node.Initializer
type miniController struct{}

// NewController creates a new minimal controller for the voting contract.
func NewController() node.Initializer {
	return miniController{}
}

// SetCommands implements node.Initializer. It creates the voting commands and
// the local keygen command.
func (miniController) SetCommands(builder node.Builder) {
	keyFlag := cli.StringFlag{
		Name:     "key",
		Usage:    "path to the private key signing the transaction",
		Required: true,
	}

	idFlag := cli.StringFlag{
		Name:     "id",
		Usage:    "identifier of the ballot",
		Required: true,
	}

	timeoutFlag := cli.DurationFlag{
		Name:  "timeout",
		Usage: "maximum amount of time to process the transaction",
		Value: defaultTimeout,
	}

	voterFlag := cli.StringFlag{
		Name:     "voter",
		Usage:    "public key of the voter in hexadecimal",
		Required: true,
	}

	cmd := builder.SetCommand("voting")
	cmd.SetDescription("Ballot administration")

	sub := cmd.SetSubCommand("create")
	sub.SetDescription("Create a ballot, the signer becomes the chairperson")
	sub.SetFlags(
		keyFlag,
		timeoutFlag,
		cli.StringFlag{
			Name:  "id",
			Usage: "identifier of the ballot, generated if empty",
		},
		cli.StringSliceFlag{
			Name:  "proposals",
			Usage: "names of the proposals in order",
		},
		cli.StringFlag{
			Name:  "file",
			Usage: "YAML file with the list of proposals",
		},
	)
	sub.SetAction(builder.MakeAction(createAction{}))

	sub = cmd.SetSubCommand("authorize")
	sub.SetDescription("Give the right to vote to a voter")
	sub.SetFlags(keyFlag, timeoutFlag, idFlag, voterFlag)
	sub.SetAction(builder.MakeAction(authorizeAction{}))

	sub = cmd.SetSubCommand("vote")
	sub.SetDescription("Vote for a proposal")
	sub.SetFlags(keyFlag, timeoutFlag, idFlag, cli.IntFlag{
		Name:     "index",
		Usage:    "index of the proposal",
		Required: true,
	})
	sub.SetAction(builder.MakeAction(voteAction{}))

	sub = cmd.SetSubCommand("show")
	sub.SetDescription("Display the proposals of a ballot")
	sub.SetFlags(idFlag)
	sub.SetAction(builder.MakeAction(showAction{}))

	sub = cmd.SetSubCommand("voter")
	sub.SetDescription("Display the status of a voter")
	sub.SetFlags(idFlag, voterFlag)
	sub.SetAction(builder.MakeAction(voterAction{}))

	sub = cmd.SetSubCommand("events")
	sub.SetDescription("Display the votes in the order they were cast")
	sub.SetFlags(idFlag)
	sub.SetAction(builder.MakeAction(eventsAction{}))

	sub = cmd.SetSubCommand("winner")
	sub.SetDescription("Display the proposal with the most votes")
	sub.SetFlags(idFlag)
	sub.SetAction(builder.MakeAction(winnerAction{}))

	keygen := newKeygenAction(printer)

	cmd = builder.SetCommand("keygen")
	cmd.SetDescription("Create a private key if needed and print the public key")
	cmd.SetFlags(cli.StringFlag{
		Name:     "save",
		Usage:    "path to the private key file",
		Required: true,
	})
	cmd.SetAction(keygen.Execute)
}

// OnStart implements node.Initializer. It registers the voting contract.
func (miniController) OnStart(flags cli.Flags, inj node.Injector) error {
	var exec *native.Service
	err := inj.Resolve(&exec)
	if err != nil {
		return xerrors.Errorf("failed to resolve native service: %v", err)
	}

	contract := voting.NewContract(json.NewContext())

	voting.RegisterContract(exec, contract)

	inj.Inject(contract)

	return nil
}

// OnStop implements node.Initializer.
func (miniController) OnStop(node.Injector) error {
	return nil
}
