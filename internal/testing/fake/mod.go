// Package fake provides fake implementations of the interfaces of the ballot
// node, to help writing unit tests.
package fake

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.dedis.ch/ballot/core/access"
	"go.dedis.ch/ballot/crypto"
	"go.dedis.ch/ballot/serde"
	"golang.org/x/xerrors"
)

var fakeErr = xerrors.New("fake error")

// GetError returns the fake error.
func GetError() error {
	return fakeErr
}

// Err returns the expected error message of a wrapped fake error.
func Err(msg string) string {
	return fmt.Sprintf("%s: %v", msg, fakeErr)
}

// Call is a tool to keep track of function calls.
type Call struct {
	sync.Mutex
	calls [][]interface{}
}

// NewCall returns a new empty call tracker.
func NewCall() *Call {
	return &Call{}
}

// Get returns the nth argument of the ith call.
func (c *Call) Get(i, n int) interface{} {
	c.Lock()
	defer c.Unlock()

	return c.calls[i][n]
}

// Len returns the number of calls.
func (c *Call) Len() int {
	c.Lock()
	defer c.Unlock()

	return len(c.calls)
}

// Add adds a call to the list. It does nothing on a nil tracker.
func (c *Call) Add(args ...interface{}) {
	if c == nil {
		return
	}

	c.Lock()
	c.calls = append(c.calls, args)
	c.Unlock()
}

// Identity is a fake implementation of an identity, compared by name.
//
// - implements access.Identity
type Identity struct {
	name string
	err  error
}

// NewIdentity returns a fake identity with the given name.
func NewIdentity(name string) Identity {
	return Identity{name: name}
}

// NewBadIdentity returns a fake identity that fails to marshal.
func NewBadIdentity() Identity {
	return Identity{name: "bad", err: fakeErr}
}

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte("fake:" + id.name), id.err
}

// Serialize implements serde.Message.
func (id Identity) Serialize(serde.Context) ([]byte, error) {
	return []byte(id.name), id.err
}

// String implements fmt.Stringer.
func (id Identity) String() string {
	return "fake:" + id.name
}

// IdentityFactory is a fake implementation of an identity factory.
//
// - implements access.IdentityFactory
type IdentityFactory struct {
	err error
}

// NewBadIdentityFactory returns a factory that always fails.
func NewBadIdentityFactory() IdentityFactory {
	return IdentityFactory{err: fakeErr}
}

// Deserialize implements serde.Factory.
func (f IdentityFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	return f.IdentityOf(ctx, data)
}

// IdentityOf implements access.IdentityFactory. It returns an identity named
// after the data.
func (f IdentityFactory) IdentityOf(ctx serde.Context, data []byte) (access.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}

	return NewIdentity(string(data)), nil
}

// PublicKey is a fake implementation of crypto.PublicKey.
//
// - implements crypto.PublicKey
type PublicKey struct {
	crypto.PublicKey
	err error
}

// NewBadPublicKey returns a new fake public key that returns error when
// appropriate.
func NewBadPublicKey() PublicKey {
	return PublicKey{err: fakeErr}
}

// Verify implements crypto.PublicKey. It returns nil or an error.
func (pk PublicKey) Verify([]byte, crypto.Signature) error {
	return pk.err
}

// Equal implements crypto.PublicKey.
func (pk PublicKey) Equal(other interface{}) bool {
	_, ok := other.(PublicKey)
	return ok
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return []byte("PK"), pk.err
}

// MarshalText implements encoding.TextMarshaler.
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte("fake.PublicKey"), pk.err
}

// Serialize implements serde.Message.
func (pk PublicKey) Serialize(serde.Context) ([]byte, error) {
	return []byte("{}"), pk.err
}

// String implements fmt.Stringer.
func (pk PublicKey) String() string {
	return "fake.PublicKey"
}

// Signature is a fake implementation of crypto.Signature.
//
// - implements crypto.Signature
type Signature struct {
	crypto.Signature
	err error
}

// NewBadSignature returns a signature that will return error when appropriate.
func NewBadSignature() Signature {
	return Signature{err: fakeErr}
}

// Equal implements crypto.Signature.
func (s Signature) Equal(o crypto.Signature) bool {
	_, ok := o.(Signature)
	return ok
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s Signature) MarshalBinary() ([]byte, error) {
	return []byte("SIG"), s.err
}

// Serialize implements serde.Message.
func (s Signature) Serialize(serde.Context) ([]byte, error) {
	return []byte("{}"), s.err
}

// Signer is a fake implementation of crypto.Signer.
//
// - implements crypto.Signer
type Signer struct {
	crypto.Signer
	err error
}

// NewSigner returns a new signer that always succeeds.
func NewSigner() Signer {
	return Signer{}
}

// NewBadSigner returns a signer that will return an error when appropriate.
func NewBadSigner() Signer {
	return Signer{err: fakeErr}
}

// GetPublicKey implements crypto.Signer.
func (s Signer) GetPublicKey() crypto.PublicKey {
	return PublicKey{}
}

// Sign implements crypto.Signer.
func (s Signer) Sign([]byte) (crypto.Signature, error) {
	return Signature{}, s.err
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s Signer) MarshalBinary() ([]byte, error) {
	return []byte("SIGNER"), s.err
}

// Message is a fake implementation of a serde message.
//
// - implements serde.Message
type Message struct {
	Digest []byte
}

// Serialize implements serde.Message.
func (m Message) Serialize(serde.Context) ([]byte, error) {
	return []byte("{}"), nil
}

const (
	// GoodFormat is the identifier of a format that always succeeds.
	GoodFormat = serde.Format("FakeGood")

	// BadFormat is the identifier of a format that always fails.
	BadFormat = serde.Format("FakeBad")
)

var fakeFormatValue = []byte("fake format")

// GetFakeFormatValue returns the value produced by the fake format engine.
func GetFakeFormatValue() []byte {
	return append([]byte{}, fakeFormatValue...)
}

// Format is a fake format engine.
//
// - implements serde.FormatEngine
type Format struct {
	Msg  serde.Message
	err  error
	Call *Call
}

// NewBadFormat returns a format that always returns an error.
func NewBadFormat() Format {
	return Format{err: fakeErr}
}

// Encode implements serde.FormatEngine.
func (f Format) Encode(ctx serde.Context, m serde.Message) ([]byte, error) {
	if f.Call != nil {
		f.Call.Add(ctx, m)
	}

	if f.err != nil {
		return nil, f.err
	}

	return GetFakeFormatValue(), nil
}

// Decode implements serde.FormatEngine.
func (f Format) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	if f.Call != nil {
		f.Call.Add(ctx, data)
	}

	if f.err != nil {
		return nil, f.err
	}

	return f.Msg, nil
}

// ContextEngine is a fake serde context engine that uses a JSON encoding
// under the hood.
//
// - implements serde.ContextEngine
type ContextEngine struct {
	Format serde.Format
	err    error
}

// NewContext returns a new fake context using the good format.
func NewContext() serde.Context {
	return NewContextWithFormat(GoodFormat)
}

// NewContextWithFormat returns a new fake context with the given format.
func NewContextWithFormat(f serde.Format) serde.Context {
	return serde.NewContext(ContextEngine{Format: f})
}

// NewBadContext returns a new fake context that always fails.
func NewBadContext() serde.Context {
	return serde.NewContext(ContextEngine{Format: BadFormat, err: fakeErr})
}

// GetFormat implements serde.ContextEngine.
func (ctx ContextEngine) GetFormat() serde.Format {
	return ctx.Format
}

// Marshal implements serde.ContextEngine.
func (ctx ContextEngine) Marshal(m interface{}) ([]byte, error) {
	if ctx.err != nil {
		return nil, ctx.err
	}

	return json.Marshal(m)
}

// Unmarshal implements serde.ContextEngine.
func (ctx ContextEngine) Unmarshal(data []byte, m interface{}) error {
	if ctx.err != nil {
		return ctx.err
	}

	return json.Unmarshal(data, m)
}
