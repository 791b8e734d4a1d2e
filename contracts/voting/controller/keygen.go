package controller

import (
	"encoding/hex"
	"fmt"
	"io"

	"go.dedis.ch/ballot/cli"
	"go.dedis.ch/ballot/crypto/ed25519"
	"go.dedis.ch/ballot/crypto/loader"
	"golang.org/x/xerrors"
)

// keyGenerator generates Ed25519 private keys.
//
// - implements loader.Generator
type keyGenerator struct{}

// Generate implements loader.Generator. It returns the binary form of a new
// private key.
func (keyGenerator) Generate() ([]byte, error) {
	signer := ed25519.NewSigner()

	data, err := signer.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal signer: %v", err)
	}

	return data, nil
}

// keygenAction is the local action of the keygen command. It does not need a
// running daemon.
type keygenAction struct {
	printer   io.Writer
	generator loader.Generator
	newLoader func(path string) loader.Loader
}

func newKeygenAction(out io.Writer) keygenAction {
	return keygenAction{
		printer:   out,
		generator: keyGenerator{},
		newLoader: loader.NewFileLoader,
	}
}

// Execute creates the private key file if it does not exist and prints the
// public key in hexadecimal.
func (a keygenAction) Execute(flags cli.Flags) error {
	path := flags.Path("save")
	if path == "" {
		return xerrors.New("missing path to the key file")
	}

	data, err := a.newLoader(path).LoadOrCreate(a.generator)
	if err != nil {
		return xerrors.Errorf("failed to load key: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return xerrors.Errorf("failed to unmarshal key: %v", err)
	}

	pubkey, err := signer.GetPublicKey().MarshalBinary()
	if err != nil {
		return xerrors.Errorf("failed to marshal public key: %v", err)
	}

	fmt.Fprintln(a.printer, hex.EncodeToString(pubkey))

	return nil
}
