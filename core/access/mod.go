// Package access defines the identities that take part in a ballot.
//
// The ballot treats an identity as an opaque value: it only needs a stable
// text representation to compare two identities. The authentication of an
// identity is the responsibility of the transaction layer.
package access

import (
	"encoding"

	"go.dedis.ch/ballot/serde"
	"golang.org/x/xerrors"
)

// Identity is an abstraction to uniquely identify a signer.
type Identity interface {
	serde.Message
	encoding.TextMarshaler
}

// IdentityFactory is the factory interface to deserialize identities.
type IdentityFactory interface {
	serde.Factory

	IdentityOf(serde.Context, []byte) (Identity, error)
}

// Key returns the text representation of the identity that can be used to
// compare or index identities.
func Key(ident Identity) (string, error) {
	if ident == nil {
		return "", xerrors.New("identity is nil")
	}

	text, err := ident.MarshalText()
	if err != nil {
		return "", xerrors.Errorf("couldn't marshal identity: %v", err)
	}

	return string(text), nil
}
