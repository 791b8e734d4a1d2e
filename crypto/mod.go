// Package crypto defines the cryptographic primitives used to sign the
// transactions of the ballot node. A public key is the identity of a
// chairperson or of a voter.
package crypto

import (
	"encoding"
	"hash"

	"go.dedis.ch/ballot/core/access"
	"go.dedis.ch/ballot/serde"
)

// HashFactory is an interface to produce a hash digest.
type HashFactory interface {
	New() hash.Hash
}

// PublicKey is a public identity that can be used to verify a signature.
type PublicKey interface {
	encoding.BinaryMarshaler
	encoding.TextMarshaler
	serde.Message

	// Verify returns nil if the signature matches the message, otherwise an
	// error is returned.
	Verify(msg []byte, sig Signature) error

	// Equal returns true when both objects are similar.
	Equal(other interface{}) bool

	// String returns a string representation of the public key.
	String() string
}

// PublicKeyFactory is a factory to create public keys. As a public key is an
// identity, the factory also deserializes identities.
type PublicKeyFactory interface {
	access.IdentityFactory

	// PublicKeyOf populates the public key associated to the data if
	// appropriate, otherwise it returns an error.
	PublicKeyOf(ctx serde.Context, data []byte) (PublicKey, error)

	// FromBytes returns the public key unmarshaled from the binary form.
	FromBytes(data []byte) (PublicKey, error)
}

// Signature is a verifiable element for a unique message.
type Signature interface {
	encoding.BinaryMarshaler
	serde.Message

	// Equal returns true when both objects are similar.
	Equal(other Signature) bool
}

// SignatureFactory is a factory to create signatures.
type SignatureFactory interface {
	serde.Factory

	// SignatureOf returns a signature associated with the data if appropriate,
	// otherwise it returns an error.
	SignatureOf(ctx serde.Context, data []byte) (Signature, error)
}

// Signer provides the primitives to sign and verify signatures.
type Signer interface {
	encoding.BinaryMarshaler

	// GetPublicKey returns the public key of the signer.
	GetPublicKey() PublicKey

	// Sign returns a signature that will match the message for the signer
	// public key.
	Sign(msg []byte) (Signature, error)
}
