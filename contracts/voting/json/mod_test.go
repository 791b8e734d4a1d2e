package json

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/ballot/contracts/voting"
	"go.dedis.ch/ballot/core/access"
	"go.dedis.ch/ballot/crypto/ed25519"
	_ "go.dedis.ch/ballot/crypto/ed25519/json"
	"go.dedis.ch/ballot/internal/testing/fake"
	"go.dedis.ch/ballot/serde"
)

func TestMsgFormat_Encode(t *testing.T) {
	format := msgFormat{}
	ctx := serde.NewContext(fake.ContextEngine{})

	state := makeState(t)

	data, err := format.Encode(ctx, state)
	require.NoError(t, err)
	require.Equal(t, `{"State":{"Chairperson":"chair","Proposals":[`+
		`{"Name":"Fireball","VoteCount":1},{"Name":"Invisibility","VoteCount":0}],`+
		`"Voters":[{"Identity":"alice","Authorized":true,"Voted":true},`+
		`{"Identity":"bob","Authorized":true,"Voted":false}]}}`, string(data))

	event := voting.VotedEvent{Voter: fake.NewIdentity(`"alice"`), ProposalIndex: 2}

	data, err = format.Encode(ctx, event)
	require.NoError(t, err)
	require.Equal(t, `{"Event":{"Voter":"alice","ProposalIndex":2}}`, string(data))

	_, err = format.Encode(ctx, fake.Message{})
	require.EqualError(t, err, "unsupported message of type 'fake.Message'")

	_, err = format.Encode(fake.NewBadContext(), state)
	require.EqualError(t, err, fake.Err("failed to marshal"))

	_, err = format.Encode(ctx, voting.VotedEvent{Voter: fake.NewBadIdentity()})
	require.EqualError(t, err, fake.Err("failed to encode voter"))

	bad, err := voting.NewState(unserializable{fake.NewIdentity("chair")}, []string{"Fireball"})
	require.NoError(t, err)

	_, err = format.Encode(ctx, bad)
	require.EqualError(t, err, fake.Err("failed to encode chairperson"))
}

func TestMsgFormat_Decode(t *testing.T) {
	format := msgFormat{}
	ctx := serde.NewContext(fake.ContextEngine{})
	ctx = serde.WithFactory(ctx, voting.IdentityKey{}, fake.IdentityFactory{})

	state := makeState(t)

	data, err := format.Encode(ctx, state)
	require.NoError(t, err)

	msg, err := format.Decode(ctx, data)
	require.NoError(t, err)
	require.IsType(t, &voting.State{}, msg)

	decoded := msg.(*voting.State)
	require.Equal(t, state.GetProposals(), decoded.GetProposals())
	require.Equal(t, voting.Voted, decoded.GetVoterStatus(fake.NewIdentity(`"alice"`)))
	require.Equal(t, voting.Authorized, decoded.GetVoterStatus(fake.NewIdentity(`"bob"`)))
	require.Equal(t, fake.NewIdentity(`"chair"`), decoded.Chairperson())

	data, err = format.Encode(ctx, voting.VotedEvent{Voter: fake.NewIdentity(`"alice"`), ProposalIndex: 1})
	require.NoError(t, err)

	msg, err = format.Decode(ctx, data)
	require.NoError(t, err)
	require.Equal(t, voting.VotedEvent{Voter: fake.NewIdentity(`"alice"`), ProposalIndex: 1}, msg)

	_, err = format.Decode(fake.NewBadContext(), data)
	require.EqualError(t, err, fake.Err("failed to unmarshal"))

	_, err = format.Decode(serde.NewContext(fake.ContextEngine{}), data)
	require.EqualError(t, err, "invalid identity factory '<nil>'")

	_, err = format.Decode(ctx, []byte(`{}`))
	require.EqualError(t, err, "message is empty")

	badCtx := serde.WithFactory(ctx, voting.IdentityKey{}, fake.NewBadIdentityFactory())

	_, err = format.Decode(badCtx, data)
	require.EqualError(t, err, fake.Err("failed to decode voter"))

	_, err = format.Decode(badCtx, []byte(`{"State":{"Chairperson":"chair"}}`))
	require.EqualError(t, err, fake.Err("failed to decode chairperson"))
}

func TestMsgFormat_InconsistentState_Decode(t *testing.T) {
	format := msgFormat{}
	ctx := serde.NewContext(fake.ContextEngine{})
	ctx = serde.WithFactory(ctx, voting.IdentityKey{}, fake.IdentityFactory{})

	testCases := []struct {
		name string
		data string
		err  string
	}{
		{
			name: "no proposal",
			data: `{"State":{"Chairperson":"chair","Voters":[` +
				`{"Identity":"alice","Authorized":true,"Voted":true}]}}`,
			err: "failed to create state: " + voting.ErrNoProposals.Error(),
		},
		{
			name: "voted without right",
			data: `{"State":{"Chairperson":"chair",` +
				`"Proposals":[{"Name":"Fireball","VoteCount":1}],` +
				`"Voters":[{"Identity":"alice","Voted":true}]}}`,
			err: `failed to create state: voter 'fake:"alice"' voted without the right to vote`,
		},
		{
			name: "counts without voters",
			data: `{"State":{"Chairperson":"chair",` +
				`"Proposals":[{"Name":"Fireball","VoteCount":7}]}}`,
			err: "failed to create state: vote counts sum to 7 but 0 voters voted",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := format.Decode(ctx, []byte(tc.data))
			require.EqualError(t, err, tc.err)
		})
	}
}

func TestMsgFormat_Ed25519Identities(t *testing.T) {
	format := msgFormat{}
	ctx := serde.NewContext(fake.ContextEngine{Format: serde.FormatJSON})
	ctx = serde.WithFactory(ctx, voting.IdentityKey{}, ed25519.NewPublicKeyFactory())

	chair := ed25519.NewSigner().GetPublicKey()
	voter := ed25519.NewSigner().GetPublicKey()

	state, err := voting.NewState(chair, []string{"Fireball"})
	require.NoError(t, err)
	require.NoError(t, state.Authorize(chair, voter))

	data, err := format.Encode(ctx, state)
	require.NoError(t, err)

	msg, err := format.Decode(ctx, data)
	require.NoError(t, err)

	decoded := msg.(*voting.State)
	require.True(t, decoded.IsAuthorized(voter))
	require.False(t, decoded.IsAuthorized(chair))

	key, err := access.Key(decoded.Chairperson())
	require.NoError(t, err)

	expected, err := access.Key(chair)
	require.NoError(t, err)
	require.Equal(t, expected, key)
}

// -----------------------------------------------------------------------------
// Utility functions

func makeState(t *testing.T) *voting.State {
	chair := fake.NewIdentity(`"chair"`)

	state, err := voting.NewState(chair, []string{"Fireball", "Invisibility"})
	require.NoError(t, err)

	require.NoError(t, state.Authorize(chair, fake.NewIdentity(`"bob"`)))
	require.NoError(t, state.Authorize(chair, fake.NewIdentity(`"alice"`)))

	_, err = state.Vote(fake.NewIdentity(`"alice"`), 0)
	require.NoError(t, err)

	return state
}

type unserializable struct {
	fake.Identity
}

func (unserializable) Serialize(serde.Context) ([]byte, error) {
	return nil, fake.GetError()
}
