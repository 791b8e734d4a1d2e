package ed25519

import (
	"go.dedis.ch/ballot/crypto"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/sign/schnorr"
	"go.dedis.ch/kyber/v3/util/key"
	"golang.org/x/xerrors"
)

// Signer holds a private key. Its binary form is what the key files of the
// participants contain.
//
// - implements crypto.Signer
type Signer struct {
	private kyber.Scalar
	public  kyber.Point
}

// NewSigner returns a signer with a random key.
func NewSigner() crypto.Signer {
	kp := key.NewKeyPair(suite)

	return Signer{
		private: kp.Private,
		public:  kp.Public,
	}
}

// NewSignerFromBytes restores a signer from the binary form of its private
// key.
func NewSignerFromBytes(data []byte) (crypto.Signer, error) {
	scalar := suite.Scalar()

	err := scalar.UnmarshalBinary(data)
	if err != nil {
		return nil, xerrors.Errorf("couldn't unmarshal scalar: %v", err)
	}

	signer := Signer{
		private: scalar,
		public:  suite.Point().Mul(scalar, nil),
	}

	return signer, nil
}

// MarshalBinary implements encoding.BinaryMarshaler. It returns the private
// key.
func (s Signer) MarshalBinary() ([]byte, error) {
	return s.private.MarshalBinary()
}

// GetPublicKey implements crypto.Signer.
func (s Signer) GetPublicKey() crypto.PublicKey {
	return PublicKey{point: s.public}
}

// Sign implements crypto.Signer.
func (s Signer) Sign(msg []byte) (crypto.Signature, error) {
	sig, err := schnorr.Sign(suite, s.private, msg)
	if err != nil {
		return nil, xerrors.Errorf("couldn't make schnorr signature: %v", err)
	}

	return Signature{data: sig}, nil
}
