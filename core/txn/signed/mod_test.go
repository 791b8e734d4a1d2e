package signed

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/ballot/core/access"
	"go.dedis.ch/ballot/core/txn"
	"go.dedis.ch/ballot/crypto"
	"go.dedis.ch/ballot/crypto/ed25519"
	"go.dedis.ch/ballot/internal/testing/fake"
	"go.dedis.ch/ballot/serde"
)

func init() {
	RegisterTransactionFormat(fake.GoodFormat, fake.Format{Msg: &Transaction{}})
	RegisterTransactionFormat(fake.BadFormat, fake.NewBadFormat())
	RegisterTransactionFormat(serde.Format("BAD_TYPE"), fake.Format{Msg: fake.Message{}})
}

func TestNewTransaction(t *testing.T) {
	chair := ed25519.NewSigner()

	tx, err := NewTransaction(0, chair.GetPublicKey(), WithArg("voting:command", []byte("CREATE")))
	require.NoError(t, err)
	require.Nil(t, tx.GetSignature())
	require.NoError(t, tx.Sign(chair))

	copied, err := NewTransaction(0, chair.GetPublicKey(),
		WithArg("voting:command", []byte("CREATE")),
		WithSignature(tx.GetSignature()))
	require.NoError(t, err)
	require.Equal(t, tx.GetID(), copied.GetID())

	// A different nonce gives a different digest.
	_, err = NewTransaction(1, chair.GetPublicKey(),
		WithArg("voting:command", []byte("CREATE")),
		WithSignature(tx.GetSignature()))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid signature: schnorr verify failed: ")

	_, err = NewTransaction(0, fake.PublicKey{}, WithHashFactory(fake.NewHashFactory(fake.NewBadHash())))
	require.EqualError(t, err, fake.Err("couldn't fingerprint tx: couldn't write nonce"))

	_, err = NewTransaction(0, nil)
	require.EqualError(t, err, "missing public key")
}

func TestTransaction_Getters(t *testing.T) {
	tx, err := NewTransaction(7, fake.PublicKey{},
		WithArg("voting:id", []byte("dragons")),
		WithArg("voting:command", []byte("VOTE")))
	require.NoError(t, err)

	require.Len(t, tx.GetID(), 32)
	require.Equal(t, uint64(7), tx.GetNonce())
	require.Equal(t, fake.PublicKey{}, tx.GetIdentity())
	require.Equal(t, fake.PublicKey{}, tx.GetPublicKey())
	require.Equal(t, []string{"voting:command", "voting:id"}, tx.GetArgs())
	require.Equal(t, []byte("dragons"), tx.GetArg("voting:id"))
	require.Nil(t, tx.GetArg("voting:index"))
}

func TestTransaction_Verify(t *testing.T) {
	tx, err := NewTransaction(0, fake.PublicKey{})
	require.NoError(t, err)
	require.EqualError(t, tx.Verify(), "missing signature")

	require.NoError(t, tx.Sign(fake.NewSigner()))
	require.NoError(t, tx.Verify())

	tx.pubkey = fake.NewBadPublicKey()
	require.EqualError(t, tx.Verify(), fake.Err("invalid signature"))
}

func TestTransaction_Sign(t *testing.T) {
	voter := ed25519.NewSigner()

	tx, err := NewTransaction(2, voter.GetPublicKey(), WithArg("voting:index", []byte("1")))
	require.NoError(t, err)

	require.NoError(t, tx.Sign(voter))
	require.NoError(t, voter.GetPublicKey().Verify(tx.GetID(), tx.GetSignature()))

	err = tx.Sign(ed25519.NewSigner())
	require.EqualError(t, err, "mismatch signer and identity")

	tx.hash = nil
	err = tx.Sign(voter)
	require.EqualError(t, err, "missing digest in transaction")

	tx.hash = []byte{1}
	tx.pubkey = fake.PublicKey{}
	err = tx.Sign(fake.NewBadSigner())
	require.EqualError(t, err, fake.Err("signer"))
}

func TestTransaction_Fingerprint(t *testing.T) {
	tx, err := NewTransaction(2, fake.PublicKey{}, WithArg("A", []byte{1, 2, 3}))
	require.NoError(t, err)

	buffer := new(bytes.Buffer)
	require.NoError(t, tx.Fingerprint(buffer))
	require.Equal(t, "\x02\x00\x00\x00\x00\x00\x00\x00\x01A\x03\x01\x02\x03PK", buffer.String())

	err = tx.Fingerprint(fake.NewBadHash())
	require.EqualError(t, err, fake.Err("couldn't write nonce"))

	err = tx.Fingerprint(fake.NewBadHashWithDelay(1))
	require.EqualError(t, err, fake.Err("couldn't write arg"))

	err = tx.Fingerprint(fake.NewBadHashWithDelay(2))
	require.EqualError(t, err, fake.Err("couldn't write public key"))

	tx.pubkey = fake.NewBadPublicKey()
	err = tx.Fingerprint(buffer)
	require.EqualError(t, err, fake.Err("failed to marshal public key"))
}

func TestTransaction_AmbiguousArgs_Fingerprint(t *testing.T) {
	first, err := NewTransaction(0, fake.PublicKey{}, WithArg("ab", []byte("c")))
	require.NoError(t, err)

	second, err := NewTransaction(0, fake.PublicKey{}, WithArg("a", []byte("bc")))
	require.NoError(t, err)

	require.NotEqual(t, first.GetID(), second.GetID())
}

func TestTransaction_Serialize(t *testing.T) {
	tx, err := NewTransaction(0, fake.PublicKey{})
	require.NoError(t, err)

	data, err := tx.Serialize(fake.NewContext())
	require.NoError(t, err)
	require.Equal(t, fake.GetFakeFormatValue(), data)

	_, err = tx.Serialize(fake.NewBadContext())
	require.EqualError(t, err, fake.Err("failed to encode"))
}

func TestTransactionFactory_Deserialize(t *testing.T) {
	factory := NewTransactionFactory()

	msg, err := factory.Deserialize(fake.NewContext(), nil)
	require.NoError(t, err)
	require.IsType(t, &Transaction{}, msg)

	_, err = factory.Deserialize(fake.NewBadContext(), nil)
	require.EqualError(t, err, fake.Err("failed to decode"))

	_, err = factory.Deserialize(fake.NewContextWithFormat(serde.Format("BAD_TYPE")), nil)
	require.EqualError(t, err, "invalid transaction of type 'fake.Message'")
}

func TestManager_Make(t *testing.T) {
	mgr := NewManager(fake.NewSigner(), nil)

	for i := uint64(0); i < 3; i++ {
		tx, err := mgr.Make(txn.Arg{Key: "voting:index", Value: []byte{byte(i)}})
		require.NoError(t, err)
		require.Equal(t, i, tx.GetNonce())
		require.Equal(t, []byte{byte(i)}, tx.GetArg("voting:index"))
	}

	mgr.hashFac = fake.NewHashFactory(fake.NewBadHash())
	_, err := mgr.Make()
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to create tx: ")

	mgr.hashFac = crypto.NewSha256Factory()
	mgr.signer = fake.NewBadSigner()
	_, err = mgr.Make()
	require.EqualError(t, err, fake.Err("failed to sign: signer"))

	// A failed transaction does not consume the nonce.
	require.Equal(t, uint64(3), mgr.nonce)
}

func TestManager_Sync(t *testing.T) {
	mgr := NewManager(fake.NewSigner(), fakeClient{nonce: 42})

	require.NoError(t, mgr.Sync())
	require.Equal(t, uint64(42), mgr.nonce)

	mgr = NewManager(fake.NewSigner(), fakeClient{err: fake.GetError()})
	require.EqualError(t, mgr.Sync(), fake.Err("client"))
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeClient struct {
	nonce uint64
	err   error
}

func (c fakeClient) GetNonce(access.Identity) (uint64, error) {
	return c.nonce, c.err
}
