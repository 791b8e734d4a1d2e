package crypto

import (
	"crypto/sha256"
	"hash"

	"golang.org/x/xerrors"
)

// Sha256Factory creates SHA-256 digests.
//
// - implements crypto.HashFactory
type Sha256Factory struct{}

// NewSha256Factory returns a new instance of the factory.
func NewSha256Factory() Sha256Factory {
	return Sha256Factory{}
}

// New implements crypto.HashFactory.
func (f Sha256Factory) New() hash.Hash {
	return sha256.New()
}

// Digest returns the digest of the concatenation of the chunks.
func Digest(f HashFactory, chunks ...[]byte) ([]byte, error) {
	h := f.New()

	for i, chunk := range chunks {
		_, err := h.Write(chunk)
		if err != nil {
			return nil, xerrors.Errorf("failed to write chunk %d: %v", i, err)
		}
	}

	return h.Sum(nil), nil
}
