package controller

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/xid"
	"go.dedis.ch/ballot/cli"
	"go.dedis.ch/ballot/cli/node"
	"go.dedis.ch/ballot/contracts/voting"
	"go.dedis.ch/ballot/core/access"
	"go.dedis.ch/ballot/core/execution/native"
	"go.dedis.ch/ballot/core/ordering"
	"go.dedis.ch/ballot/core/txn"
	"go.dedis.ch/ballot/core/txn/signed"
	"go.dedis.ch/ballot/crypto"
	"go.dedis.ch/ballot/crypto/ed25519"
	"go.dedis.ch/ballot/crypto/loader"
	"go.dedis.ch/ballot/serde/json"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// proposalFile is the content of a YAML file listing the proposals.
type proposalFile struct {
	Proposals []string `yaml:"proposals"`
}

// createAction is an action to create a ballot.
//
// - implements node.ActionTemplate
type createAction struct{}

// Execute implements node.ActionTemplate. It reads the proposals from the flags
// or the file and sends the transaction. The identifier of the ballot is
// printed.
func (a createAction) Execute(ctx node.Context) error {
	names, err := readProposals(ctx.Flags)
	if err != nil {
		return xerrors.Errorf("failed to read proposals: %v", err)
	}

	data, err := json.NewContext().Marshal(names)
	if err != nil {
		return xerrors.Errorf("failed to encode proposals: %v", err)
	}

	id := ctx.Flags.String("id")
	if id == "" {
		id = xid.New().String()
	}

	err = send(ctx,
		txn.Arg{Key: voting.CmdArg, Value: []byte(voting.CmdCreate)},
		txn.Arg{Key: voting.BallotArg, Value: []byte(id)},
		txn.Arg{Key: voting.ProposalsArg, Value: data},
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "ballot %s created\n", id)

	return nil
}

// authorizeAction is an action to give the right to vote.
//
// - implements node.ActionTemplate
type authorizeAction struct{}

// Execute implements node.ActionTemplate.
func (a authorizeAction) Execute(ctx node.Context) error {
	voter, err := hex.DecodeString(ctx.Flags.String("voter"))
	if err != nil {
		return xerrors.Errorf("invalid voter: %v", err)
	}

	err = send(ctx,
		txn.Arg{Key: voting.CmdArg, Value: []byte(voting.CmdAuthorize)},
		txn.Arg{Key: voting.BallotArg, Value: []byte(ctx.Flags.String("id"))},
		txn.Arg{Key: voting.VoterArg, Value: voter},
	)
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.Out, "voter authorized")

	return nil
}

// voteAction is an action to vote for a proposal.
//
// - implements node.ActionTemplate
type voteAction struct{}

// Execute implements node.ActionTemplate.
func (a voteAction) Execute(ctx node.Context) error {
	index := ctx.Flags.Int("index")
	if index < 0 {
		return xerrors.Errorf("invalid index '%d'", index)
	}

	err := send(ctx,
		txn.Arg{Key: voting.CmdArg, Value: []byte(voting.CmdVote)},
		txn.Arg{Key: voting.BallotArg, Value: []byte(ctx.Flags.String("id"))},
		txn.Arg{Key: voting.IndexArg, Value: []byte(strconv.Itoa(index))},
	)
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.Out, "vote cast")

	return nil
}

// showAction is an action to display the proposals of a ballot.
//
// - implements node.ActionTemplate
type showAction struct{}

// Execute implements node.ActionTemplate.
func (a showAction) Execute(ctx node.Context) error {
	id := ctx.Flags.String("id")

	state, err := readState(ctx, id)
	if err != nil {
		return err
	}

	chair, err := access.Key(state.Chairperson())
	if err != nil {
		return xerrors.Errorf("chairperson: %v", err)
	}

	fmt.Fprintf(ctx.Out, "ballot: %s\n", id)
	fmt.Fprintf(ctx.Out, "chairperson: %s\n", chair)

	for i, proposal := range state.GetProposals() {
		fmt.Fprintf(ctx.Out, "%d: %s (%d votes)\n", i, proposal.Name, proposal.VoteCount)
	}

	return nil
}

// voterAction is an action to display the status of a voter.
//
// - implements node.ActionTemplate
type voterAction struct{}

// Execute implements node.ActionTemplate.
func (a voterAction) Execute(ctx node.Context) error {
	data, err := hex.DecodeString(ctx.Flags.String("voter"))
	if err != nil {
		return xerrors.Errorf("invalid voter: %v", err)
	}

	voter, err := ed25519.NewPublicKeyFactory().FromBytes(data)
	if err != nil {
		return xerrors.Errorf("invalid voter: %v", err)
	}

	state, err := readState(ctx, ctx.Flags.String("id"))
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.Out, state.GetVoterStatus(voter))

	return nil
}

// eventsAction is an action to display the votes of a ballot.
//
// - implements node.ActionTemplate
type eventsAction struct{}

// Execute implements node.ActionTemplate.
func (a eventsAction) Execute(ctx node.Context) error {
	var contract *voting.Contract
	var srvc ordering.Service

	err := resolve(ctx, &contract, &srvc)
	if err != nil {
		return err
	}

	events, err := contract.ReadEvents(srvc.GetStore(), ctx.Flags.String("id"))
	if err != nil {
		return xerrors.Errorf("failed to read events: %v", err)
	}

	for i, event := range events {
		voter, err := access.Key(event.Voter)
		if err != nil {
			return xerrors.Errorf("voter: %v", err)
		}

		fmt.Fprintf(ctx.Out, "#%d %s voted for %d\n", i, voter, event.ProposalIndex)
	}

	return nil
}

// winnerAction is an action to display the winning proposal.
//
// - implements node.ActionTemplate
type winnerAction struct{}

// Execute implements node.ActionTemplate.
func (a winnerAction) Execute(ctx node.Context) error {
	state, err := readState(ctx, ctx.Flags.String("id"))
	if err != nil {
		return err
	}

	index, err := state.WinningProposal()
	if err != nil {
		return xerrors.Errorf("failed to find the winner: %w", err)
	}

	proposal, err := state.GetProposal(index)
	if err != nil {
		return xerrors.Errorf("failed to get proposal: %w", err)
	}

	fmt.Fprintf(ctx.Out, "winner: %d (%s) with %d votes\n", index, proposal.Name, proposal.VoteCount)

	return nil
}

func readProposals(flags cli.Flags) ([]string, error) {
	path := flags.Path("file")
	if path == "" {
		return flags.StringSlice("proposals"), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to read file: %v", err)
	}

	var file proposalFile

	err = yaml.Unmarshal(data, &file)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse file: %v", err)
	}

	return file.Proposals, nil
}

func readState(ctx node.Context, id string) (*voting.State, error) {
	var contract *voting.Contract
	var srvc ordering.Service

	err := resolve(ctx, &contract, &srvc)
	if err != nil {
		return nil, err
	}

	state, err := contract.ReadState(srvc.GetStore(), id)
	if err != nil {
		return nil, xerrors.Errorf("failed to read ballot: %v", err)
	}

	return state, nil
}

func resolve(ctx node.Context, deps ...interface{}) error {
	for _, dep := range deps {
		err := ctx.Injector.Resolve(dep)
		if err != nil {
			return xerrors.Errorf("injector: %v", err)
		}
	}

	return nil
}

func loadSigner(path string) (crypto.Signer, error) {
	data, err := loader.NewFileLoader(path).Load()
	if err != nil {
		return nil, xerrors.Errorf("failed to load key: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal key: %v", err)
	}

	return signer, nil
}

// send signs a transaction for the voting contract with the key of the flags
// and waits for the ordering to process it. A refused transaction is returned
// as an error with the reason.
func send(ctx node.Context, args ...txn.Arg) error {
	var client signed.Client
	var srvc ordering.Service

	err := resolve(ctx, &client, &srvc)
	if err != nil {
		return err
	}

	signer, err := loadSigner(ctx.Flags.Path("key"))
	if err != nil {
		return err
	}

	mgr := signed.NewManager(signer, client)

	err = mgr.Sync()
	if err != nil {
		return xerrors.Errorf("failed to sync manager: %v", err)
	}

	args = append(args, txn.Arg{Key: native.ContractArg, Value: []byte(voting.ContractName)})

	tx, err := mgr.Make(args...)
	if err != nil {
		return xerrors.Errorf("failed to make tx: %v", err)
	}

	timeout := ctx.Flags.Duration("timeout")
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	addCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	event, err := srvc.Add(addCtx, tx)
	if err != nil {
		return xerrors.Errorf("failed to add tx: %v", err)
	}

	if !event.Accepted {
		return xerrors.Errorf("transaction refused: %s", event.Message)
	}

	return nil
}
