// Package voting implements a native contract that hosts ballots.
//
// A ballot is created by a chairperson with a fixed list of proposals. The
// chairperson authorizes the voters, and each authorized voter can vote once
// for one of the proposals. The caller of a command is the identity of the
// transaction.
package voting

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/ballot"
	"go.dedis.ch/ballot/core"
	"go.dedis.ch/ballot/core/execution"
	"go.dedis.ch/ballot/core/execution/native"
	"go.dedis.ch/ballot/core/store"
	"go.dedis.ch/ballot/crypto"
	"go.dedis.ch/ballot/crypto/ed25519"
	"go.dedis.ch/ballot/serde"
	"golang.org/x/xerrors"
)

const (
	// ContractName is the name of the contract.
	ContractName = "go.dedis.ch/ballot.Voting"

	// CmdArg is the argument's name to indicate the kind of command we want to
	// run on the contract. Should be one of the Command type.
	CmdArg = "voting:command"

	// BallotArg is the argument's name in the transaction that contains the
	// identifier of the ballot.
	BallotArg = "voting:ballot"

	// ProposalsArg is the argument's name in the transaction that contains the
	// list of proposal names, encoded with the format of the contract.
	ProposalsArg = "voting:proposals"

	// VoterArg is the argument's name in the transaction that contains the
	// public key of the voter to authorize.
	VoterArg = "voting:voter"

	// IndexArg is the argument's name in the transaction that contains the
	// index of the proposal, in decimal.
	IndexArg = "voting:index"

	keyPrefix = "ballot:"
)

// Command defines a type of command for the voting contract.
type Command string

const (
	// CmdCreate defines the command to create a ballot.
	CmdCreate Command = "CREATE"

	// CmdAuthorize defines the command to give the right to vote.
	CmdAuthorize Command = "AUTHORIZE"

	// CmdVote defines the command to cast a vote.
	CmdVote Command = "VOTE"
)

var promCommands = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "ballot_voting_commands_total",
	Help: "number of commands executed by the voting contract",
}, []string{"command", "status"})

func init() {
	ballot.PromCollectors = append(ballot.PromCollectors, promCommands)
}

// commands defines the commands of the voting contract. This interface helps
// in testing the contract.
type commands interface {
	create(snap store.Snapshot, step execution.Step) error
	authorize(snap store.Snapshot, step execution.Step) error
	vote(snap store.Snapshot, step execution.Step) error
}

// Notification is published to the watchers of the contract after a vote is
// committed.
type Notification struct {
	BallotID string
	Event    VotedEvent
}

// RegisterContract registers the voting contract to the given execution
// service.
func RegisterContract(exec *native.Service, c *Contract) {
	exec.Set(ContractName, c)
}

// ContractOption is the type of options to create a contract.
type ContractOption func(*Contract)

// WithPublicKeyFactory is an option to set the factory of the identities. The
// Ed25519 factory is used by default.
func WithPublicKeyFactory(f crypto.PublicKeyFactory) ContractOption {
	return func(c *Contract) {
		c.pubkeyFac = f
	}
}

// Contract is a native contract that hosts the ballots in the store.
//
// - implements native.Contract
type Contract struct {
	context   serde.Context
	pubkeyFac crypto.PublicKeyFactory
	watcher   core.Observable

	// cmd provides the commands executions
	cmd commands
}

// NewContract creates a new voting contract that encodes the ballots with the
// given context.
func NewContract(ctx serde.Context, opts ...ContractOption) *Contract {
	contract := &Contract{
		context:   ctx,
		pubkeyFac: ed25519.NewPublicKeyFactory(),
		watcher:   core.NewWatcher(),
	}

	for _, opt := range opts {
		opt(contract)
	}

	contract.cmd = votingCommand{Contract: contract}

	return contract
}

// Execute implements native.Contract. It runs the appropriate command.
func (c *Contract) Execute(snap store.Snapshot, step execution.Step) error {
	cmd := step.Current.GetArg(CmdArg)
	if len(cmd) == 0 {
		return xerrors.Errorf("'%s' not found in tx arg", CmdArg)
	}

	var err error

	switch Command(cmd) {
	case CmdCreate:
		err = c.cmd.create(snap, step)
	case CmdAuthorize:
		err = c.cmd.authorize(snap, step)
	case CmdVote:
		err = c.cmd.vote(snap, step)
	default:
		return xerrors.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		promCommands.WithLabelValues(string(cmd), "refused").Inc()
		return xerrors.Errorf("failed to %s: %w", cmd, err)
	}

	promCommands.WithLabelValues(string(cmd), "accepted").Inc()

	return nil
}

// Watch returns a channel populated with the votes committed until the context
// is done.
func (c *Contract) Watch(ctx context.Context) <-chan Notification {
	ch := make(chan Notification, 100)

	obs := observer{ch: ch}
	c.watcher.Add(obs)

	go func() {
		<-ctx.Done()
		c.watcher.Remove(obs)
	}()

	return ch
}

// ReadState returns the state of the ballot from the store.
func (c *Contract) ReadState(s store.Readable, id string) (*State, error) {
	err := checkID(id)
	if err != nil {
		return nil, err
	}

	data, err := s.Get(stateKey(id))
	if err != nil {
		return nil, xerrors.Errorf("failed to read ballot: %v", err)
	}

	if len(data) == 0 {
		return nil, xerrors.Errorf("ballot '%s' not found", id)
	}

	state, err := c.messageFactory().StateOf(c.context, data)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode ballot: %v", err)
	}

	return state, nil
}

// ReadEvents returns the votes of the ballot in the order they were cast.
func (c *Contract) ReadEvents(s store.Readable, id string) ([]VotedEvent, error) {
	err := checkID(id)
	if err != nil {
		return nil, err
	}

	count, err := readCounter(s, counterKey(id))
	if err != nil {
		return nil, err
	}

	events := make([]VotedEvent, count)

	for i := range events {
		data, err := s.Get(eventKey(id, uint64(i)))
		if err != nil {
			return nil, xerrors.Errorf("failed to read event %d: %v", i, err)
		}

		events[i], err = c.messageFactory().EventOf(c.context, data)
		if err != nil {
			return nil, xerrors.Errorf("failed to decode event %d: %v", i, err)
		}
	}

	return events, nil
}

func (c *Contract) messageFactory() MessageFactory {
	return NewMessageFactory(c.pubkeyFac)
}

func (c *Contract) writeState(snap store.Snapshot, id string, state *State) error {
	data, err := state.Serialize(c.context)
	if err != nil {
		return xerrors.Errorf("failed to serialize ballot: %v", err)
	}

	err = snap.Set(stateKey(id), data)
	if err != nil {
		return xerrors.Errorf("failed to store ballot: %v", err)
	}

	return nil
}

func (c *Contract) appendEvent(snap store.Snapshot, id string, event VotedEvent) error {
	count, err := readCounter(snap, counterKey(id))
	if err != nil {
		return err
	}

	data, err := event.Serialize(c.context)
	if err != nil {
		return xerrors.Errorf("failed to serialize event: %v", err)
	}

	err = snap.Set(eventKey(id, count), data)
	if err != nil {
		return xerrors.Errorf("failed to store event: %v", err)
	}

	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, count+1)

	err = snap.Set(counterKey(id), buffer)
	if err != nil {
		return xerrors.Errorf("failed to store counter: %v", err)
	}

	return nil
}

// votingCommand implements the commands of the voting contract
//
// - implements commands
type votingCommand struct {
	*Contract
}

// create implements commands. It performs the CREATE command
func (c votingCommand) create(snap store.Snapshot, step execution.Step) error {
	id := string(step.Current.GetArg(BallotArg))

	err := checkID(id)
	if err != nil {
		return err
	}

	existing, err := snap.Get(stateKey(id))
	if err != nil {
		return xerrors.Errorf("failed to read ballot: %v", err)
	}

	if len(existing) > 0 {
		return xerrors.Errorf("ballot '%s' already exists", id)
	}

	var names []string

	err = c.context.Unmarshal(step.Current.GetArg(ProposalsArg), &names)
	if err != nil {
		return xerrors.Errorf("invalid '%s': %v", ProposalsArg, err)
	}

	caller := step.Current.GetIdentity()

	state, err := NewState(caller, names)
	if err != nil {
		return err
	}

	err = c.writeState(snap, id, state)
	if err != nil {
		return err
	}

	ballot.Logger.Info().
		Str("contract", "voting").
		Str("ballot", id).
		Int("proposals", len(names)).
		Msgf("ballot created by %v", caller)

	return nil
}

// authorize implements commands. It performs the AUTHORIZE command
func (c votingCommand) authorize(snap store.Snapshot, step execution.Step) error {
	id := string(step.Current.GetArg(BallotArg))

	state, err := c.ReadState(snap, id)
	if err != nil {
		return err
	}

	data := step.Current.GetArg(VoterArg)
	if len(data) == 0 {
		return xerrors.Errorf("'%s' not found in tx arg", VoterArg)
	}

	voter, err := c.pubkeyFac.FromBytes(data)
	if err != nil {
		return xerrors.Errorf("invalid voter: %v", err)
	}

	err = state.Authorize(step.Current.GetIdentity(), voter)
	if err != nil {
		return err
	}

	err = c.writeState(snap, id, state)
	if err != nil {
		return err
	}

	ballot.Logger.Info().
		Str("contract", "voting").
		Str("ballot", id).
		Msgf("voter %v authorized", voter)

	return nil
}

// vote implements commands. It performs the VOTE command
func (c votingCommand) vote(snap store.Snapshot, step execution.Step) error {
	id := string(step.Current.GetArg(BallotArg))

	state, err := c.ReadState(snap, id)
	if err != nil {
		return err
	}

	index, err := strconv.ParseUint(string(step.Current.GetArg(IndexArg)), 10, 64)
	if err != nil {
		return xerrors.Errorf("invalid '%s': %v", IndexArg, err)
	}

	event, err := state.Vote(step.Current.GetIdentity(), index)
	if err != nil {
		return err
	}

	err = c.writeState(snap, id, state)
	if err != nil {
		return err
	}

	err = c.appendEvent(snap, id, event)
	if err != nil {
		return err
	}

	notif := Notification{BallotID: id, Event: event}

	txn, ok := snap.(store.Transaction)
	if ok {
		txn.OnCommit(func() {
			c.watcher.Notify(notif)
		})
	} else {
		c.watcher.Notify(notif)
	}

	ballot.Logger.Info().
		Str("contract", "voting").
		Str("ballot", id).
		Uint64("proposal", index).
		Msgf("vote cast by %v", event.Voter)

	return nil
}

// observer forwards the notifications to a channel. A notification is dropped
// when the channel is full.
//
// - implements core.Observer
type observer struct {
	ch chan Notification
}

func (o observer) NotifyCallback(event interface{}) {
	select {
	case o.ch <- event.(Notification):
	default:
		ballot.Logger.Warn().Msg("voting watcher is full, notification dropped")
	}
}

func checkID(id string) error {
	if id == "" {
		return xerrors.New("ballot identifier is empty")
	}

	if strings.Contains(id, ":") {
		return xerrors.Errorf("invalid ballot identifier '%s'", id)
	}

	return nil
}

func readCounter(s store.Readable, key []byte) (uint64, error) {
	data, err := s.Get(key)
	if err != nil {
		return 0, xerrors.Errorf("failed to read counter: %v", err)
	}

	if len(data) == 0 {
		return 0, nil
	}

	if len(data) != 8 {
		return 0, xerrors.Errorf("malformed counter of length %d", len(data))
	}

	return binary.BigEndian.Uint64(data), nil
}

func stateKey(id string) []byte {
	return []byte(keyPrefix + id)
}

func counterKey(id string) []byte {
	return []byte(keyPrefix + id + ":events")
}

func eventKey(id string, n uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:event:%d", keyPrefix, id, n))
}

