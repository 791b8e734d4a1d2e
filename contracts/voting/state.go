package voting

import (
	"sort"

	"go.dedis.ch/ballot/core/access"
	"go.dedis.ch/ballot/serde"
	"go.dedis.ch/ballot/serde/registry"
	"golang.org/x/xerrors"
)

var (
	// ErrUnauthorized is returned when an identity other than the chairperson
	// tries to authorize a voter.
	ErrUnauthorized = xerrors.New("Only chairperson can authorize voters.")

	// ErrNotAuthorized is returned when an identity without the right to vote
	// tries to vote.
	ErrNotAuthorized = xerrors.New("Has no right to vote.")

	// ErrInvalidProposal is returned when a proposal index is out of range.
	ErrInvalidProposal = xerrors.New("Invalid proposal index.")

	// ErrAlreadyVoted is returned when an identity tries to vote a second
	// time.
	ErrAlreadyVoted = xerrors.New("Already voted.")

	// ErrNoProposals is returned when a ballot is created without proposals.
	ErrNoProposals = xerrors.New("At least one proposal is required.")

	// ErrNoVotes is returned when the winner is asked before any vote.
	ErrNoVotes = xerrors.New("No vote has been cast.")
)

var msgFormats = registry.NewSimpleRegistry()

// RegisterMessageFormat registers the engine for the provided format.
func RegisterMessageFormat(f serde.Format, e serde.FormatEngine) {
	msgFormats.Register(f, e)
}

// Proposal is a named option of a ballot with the number of votes it
// received.
type Proposal struct {
	Name      string
	VoteCount uint64
}

// VoterStatus is the position of an identity in the life of a voter.
type VoterStatus int

const (
	// Unregistered is the status of an identity never authorized.
	Unregistered VoterStatus = iota

	// Authorized is the status of an identity allowed to vote that has not
	// voted yet.
	Authorized

	// Voted is the status of an identity that cast its vote.
	Voted
)

func (s VoterStatus) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case Authorized:
		return "authorized"
	case Voted:
		return "voted"
	default:
		return "unknown"
	}
}

// Voter is the record of an identity known by the ballot.
type Voter struct {
	Identity   access.Identity
	Authorized bool
	Voted      bool
}

// VotedEvent is emitted once per successful vote.
//
// - implements serde.Message
type VotedEvent struct {
	Voter         access.Identity
	ProposalIndex uint64
}

// Serialize implements serde.Message.
func (e VotedEvent) Serialize(ctx serde.Context) ([]byte, error) {
	format := msgFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, e)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode event: %v", err)
	}

	return data, nil
}

// State is the state of a single ballot. It does not lock: the caller is
// responsible for serializing the calls.
//
// - implements serde.Message
type State struct {
	chairperson access.Identity
	proposals   []Proposal

	// voters is indexed by the text representation of the identities.
	voters map[string]*Voter
}

// NewState creates the ballot of the caller, who becomes the chairperson. The
// proposals are created in the order of the names with no vote.
func NewState(caller access.Identity, names []string) (*State, error) {
	if len(names) == 0 {
		return nil, ErrNoProposals
	}

	_, err := access.Key(caller)
	if err != nil {
		return nil, xerrors.Errorf("invalid chairperson: %v", err)
	}

	proposals := make([]Proposal, len(names))
	for i, name := range names {
		proposals[i] = Proposal{Name: name}
	}

	state := &State{
		chairperson: caller,
		proposals:   proposals,
		voters:      make(map[string]*Voter),
	}

	return state, nil
}

// NewStateFrom restores a state from its parts. The voters are indexed by
// their identity. It returns an error when the parts break the rules of a
// ballot: no proposal, an invalid chairperson, a voter who voted without the
// right to vote, or counters that do not match the voters who voted.
func NewStateFrom(chairperson access.Identity, proposals []Proposal, voters []Voter) (*State, error) {
	if len(proposals) == 0 {
		return nil, ErrNoProposals
	}

	_, err := access.Key(chairperson)
	if err != nil {
		return nil, xerrors.Errorf("invalid chairperson: %v", err)
	}

	state := &State{
		chairperson: chairperson,
		proposals:   append([]Proposal{}, proposals...),
		voters:      make(map[string]*Voter, len(voters)),
	}

	numVoted := uint64(0)

	for i := range voters {
		key, err := access.Key(voters[i].Identity)
		if err != nil {
			return nil, xerrors.Errorf("invalid voter: %v", err)
		}

		_, found := state.voters[key]
		if found {
			return nil, xerrors.Errorf("duplicate voter '%s'", key)
		}

		voter := voters[i]
		if voter.Voted {
			if !voter.Authorized {
				return nil, xerrors.Errorf("voter '%s' voted without the right to vote", key)
			}

			numVoted++
		}

		state.voters[key] = &voter
	}

	numVotes := uint64(0)
	for _, proposal := range proposals {
		numVotes += proposal.VoteCount
	}

	if numVotes != numVoted {
		return nil, xerrors.Errorf("vote counts sum to %d but %d voters voted", numVotes, numVoted)
	}

	return state, nil
}

// Chairperson returns the identity that created the ballot.
func (s *State) Chairperson() access.Identity {
	return s.chairperson
}

// Authorize gives the right to vote to the target. Only the chairperson can
// authorize, and authorizing twice has no effect.
func (s *State) Authorize(caller, target access.Identity) error {
	if !s.isChairperson(caller) {
		return ErrUnauthorized
	}

	key, err := access.Key(target)
	if err != nil {
		return xerrors.Errorf("invalid voter: %v", err)
	}

	voter := s.voters[key]
	if voter == nil {
		s.voters[key] = &Voter{Identity: target, Authorized: true}
		return nil
	}

	voter.Authorized = true

	return nil
}

// Vote casts the vote of the caller for the proposal at the index. The caller
// must be authorized, the index must exist and the caller must not have voted
// already, checked in that order. The state is not modified on failure.
func (s *State) Vote(caller access.Identity, index uint64) (VotedEvent, error) {
	voter := s.lookup(caller)
	if voter == nil || !voter.Authorized {
		return VotedEvent{}, ErrNotAuthorized
	}

	if index >= uint64(len(s.proposals)) {
		return VotedEvent{}, ErrInvalidProposal
	}

	if voter.Voted {
		return VotedEvent{}, ErrAlreadyVoted
	}

	s.proposals[index].VoteCount++
	voter.Voted = true

	event := VotedEvent{
		Voter:         caller,
		ProposalIndex: index,
	}

	return event, nil
}

// GetProposal returns the proposal at the index.
func (s *State) GetProposal(index uint64) (Proposal, error) {
	if index >= uint64(len(s.proposals)) {
		return Proposal{}, ErrInvalidProposal
	}

	return s.proposals[index], nil
}

// GetProposals returns a copy of the proposals in order.
func (s *State) GetProposals() []Proposal {
	return append([]Proposal{}, s.proposals...)
}

// GetNumProposals returns the number of proposals, which never changes.
func (s *State) GetNumProposals() uint64 {
	return uint64(len(s.proposals))
}

// IsAuthorized returns true if the identity has been authorized. It stays
// true after the identity voted.
func (s *State) IsAuthorized(ident access.Identity) bool {
	voter := s.lookup(ident)

	return voter != nil && voter.Authorized
}

// HasVoted returns true if the identity cast its vote.
func (s *State) HasVoted(ident access.Identity) bool {
	voter := s.lookup(ident)

	return voter != nil && voter.Voted
}

// GetVoterStatus returns the status of the identity.
func (s *State) GetVoterStatus(ident access.Identity) VoterStatus {
	switch {
	case s.HasVoted(ident):
		return Voted
	case s.IsAuthorized(ident):
		return Authorized
	default:
		return Unregistered
	}
}

// GetVoters returns a copy of the voters sorted by identity.
func (s *State) GetVoters() []Voter {
	keys := make([]string, 0, len(s.voters))
	for key := range s.voters {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	voters := make([]Voter, len(keys))
	for i, key := range keys {
		voters[i] = *s.voters[key]
	}

	return voters
}

// WinningProposal returns the index of the proposal with the most votes. A
// tie is resolved toward the lowest index.
func (s *State) WinningProposal() (uint64, error) {
	var winner uint64
	var best uint64

	for i, proposal := range s.proposals {
		if proposal.VoteCount > best {
			best = proposal.VoteCount
			winner = uint64(i)
		}
	}

	if best == 0 {
		return 0, ErrNoVotes
	}

	return winner, nil
}

// Serialize implements serde.Message.
func (s *State) Serialize(ctx serde.Context) ([]byte, error) {
	format := msgFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, s)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode state: %v", err)
	}

	return data, nil
}

func (s *State) isChairperson(ident access.Identity) bool {
	key, err := access.Key(ident)
	if err != nil {
		return false
	}

	chair, err := access.Key(s.chairperson)
	if err != nil {
		return false
	}

	return key == chair
}

func (s *State) lookup(ident access.Identity) *Voter {
	key, err := access.Key(ident)
	if err != nil {
		return nil
	}

	return s.voters[key]
}

// IdentityKey is the key of the identity factory.
type IdentityKey struct{}

// MessageFactory is the factory to deserialize the states and the events.
//
// - implements serde.Factory
type MessageFactory struct {
	identityFac access.IdentityFactory
}

// NewMessageFactory returns a factory that decodes the identities with the
// given factory.
func NewMessageFactory(f access.IdentityFactory) MessageFactory {
	return MessageFactory{
		identityFac: f,
	}
}

// Deserialize implements serde.Factory. It returns either a state or an event.
func (f MessageFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	format := msgFormats.Get(ctx.GetFormat())

	ctx = serde.WithFactory(ctx, IdentityKey{}, f.identityFac)

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode: %v", err)
	}

	return msg, nil
}

// StateOf returns the state from the data.
func (f MessageFactory) StateOf(ctx serde.Context, data []byte) (*State, error) {
	msg, err := f.Deserialize(ctx, data)
	if err != nil {
		return nil, err
	}

	state, ok := msg.(*State)
	if !ok {
		return nil, xerrors.Errorf("invalid state of type '%T'", msg)
	}

	return state, nil
}

// EventOf returns the event from the data.
func (f MessageFactory) EventOf(ctx serde.Context, data []byte) (VotedEvent, error) {
	msg, err := f.Deserialize(ctx, data)
	if err != nil {
		return VotedEvent{}, err
	}

	event, ok := msg.(VotedEvent)
	if !ok {
		return VotedEvent{}, xerrors.Errorf("invalid event of type '%T'", msg)
	}

	return event, nil
}
