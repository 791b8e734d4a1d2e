// Package json defines the JSON messages of the ballot states and events.
package json

import (
	"encoding/json"

	"go.dedis.ch/ballot/contracts/voting"
	"go.dedis.ch/ballot/core/access"
	"go.dedis.ch/ballot/serde"
	"golang.org/x/xerrors"
)

func init() {
	voting.RegisterMessageFormat(serde.FormatJSON, msgFormat{})
}

// ProposalJSON is the JSON message of a proposal.
type ProposalJSON struct {
	Name      string
	VoteCount uint64
}

// VoterJSON is the JSON message of a voter.
type VoterJSON struct {
	Identity   json.RawMessage
	Authorized bool
	Voted      bool
}

// StateJSON is the JSON message of a ballot state.
type StateJSON struct {
	Chairperson json.RawMessage
	Proposals   []ProposalJSON
	Voters      []VoterJSON
}

// EventJSON is the JSON message of a voted event.
type EventJSON struct {
	Voter         json.RawMessage
	ProposalIndex uint64
}

// MessageJSON is the JSON message that wraps the different kinds of messages.
type MessageJSON struct {
	State *StateJSON `json:",omitempty"`
	Event *EventJSON `json:",omitempty"`
}

// MsgFormat is the engine to encode and decode the ballot messages in JSON
// format.
//
// - implements serde.FormatEngine
type msgFormat struct{}

// Encode implements serde.FormatEngine. It returns the JSON data of a state or
// an event.
func (f msgFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	var m MessageJSON

	switch in := msg.(type) {
	case *voting.State:
		state, err := encodeState(ctx, in)
		if err != nil {
			return nil, err
		}

		m = MessageJSON{State: state}
	case voting.VotedEvent:
		voter, err := in.Voter.Serialize(ctx)
		if err != nil {
			return nil, xerrors.Errorf("failed to encode voter: %v", err)
		}

		m = MessageJSON{
			Event: &EventJSON{
				Voter:         voter,
				ProposalIndex: in.ProposalIndex,
			},
		}
	default:
		return nil, xerrors.Errorf("unsupported message of type '%T'", msg)
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It populates a state or an event from
// the JSON data.
func (f msgFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := MessageJSON{}
	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal: %v", err)
	}

	factory := ctx.GetFactory(voting.IdentityKey{})

	fac, ok := factory.(access.IdentityFactory)
	if !ok {
		return nil, xerrors.Errorf("invalid identity factory '%T'", factory)
	}

	switch {
	case m.State != nil:
		return decodeState(ctx, fac, *m.State)
	case m.Event != nil:
		voter, err := fac.IdentityOf(ctx, m.Event.Voter)
		if err != nil {
			return nil, xerrors.Errorf("failed to decode voter: %v", err)
		}

		event := voting.VotedEvent{
			Voter:         voter,
			ProposalIndex: m.Event.ProposalIndex,
		}

		return event, nil
	}

	return nil, xerrors.New("message is empty")
}

func encodeState(ctx serde.Context, state *voting.State) (*StateJSON, error) {
	chair, err := state.Chairperson().Serialize(ctx)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode chairperson: %v", err)
	}

	proposals := state.GetProposals()
	m := &StateJSON{
		Chairperson: chair,
		Proposals:   make([]ProposalJSON, len(proposals)),
	}

	for i, proposal := range proposals {
		m.Proposals[i] = ProposalJSON(proposal)
	}

	for _, voter := range state.GetVoters() {
		ident, err := voter.Identity.Serialize(ctx)
		if err != nil {
			return nil, xerrors.Errorf("failed to encode voter: %v", err)
		}

		m.Voters = append(m.Voters, VoterJSON{
			Identity:   ident,
			Authorized: voter.Authorized,
			Voted:      voter.Voted,
		})
	}

	return m, nil
}

func decodeState(ctx serde.Context, fac access.IdentityFactory, m StateJSON) (*voting.State, error) {
	chair, err := fac.IdentityOf(ctx, m.Chairperson)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode chairperson: %v", err)
	}

	proposals := make([]voting.Proposal, len(m.Proposals))
	for i, proposal := range m.Proposals {
		proposals[i] = voting.Proposal(proposal)
	}

	voters := make([]voting.Voter, len(m.Voters))
	for i, voter := range m.Voters {
		ident, err := fac.IdentityOf(ctx, voter.Identity)
		if err != nil {
			return nil, xerrors.Errorf("failed to decode voter: %v", err)
		}

		voters[i] = voting.Voter{
			Identity:   ident,
			Authorized: voter.Authorized,
			Voted:      voter.Voted,
		}
	}

	state, err := voting.NewStateFrom(chair, proposals, voters)
	if err != nil {
		return nil, xerrors.Errorf("failed to create state: %v", err)
	}

	return state, nil
}
