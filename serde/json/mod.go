// Package json implements the JSON context engine. Importing it registers the
// JSON formats of every message of the node.
package json

import (
	"bytes"
	"encoding/json"

	_ "go.dedis.ch/ballot/contracts/voting/json"
	_ "go.dedis.ch/ballot/core/txn/signed/json"
	_ "go.dedis.ch/ballot/crypto/ed25519/json"
	"go.dedis.ch/ballot/serde"
	"golang.org/x/xerrors"
)

// jsonEngine marshals the messages in JSON. The decoding is strict: unknown
// fields and trailing data are refused.
//
// - implements serde.ContextEngine
type jsonEngine struct{}

// NewContext returns a JSON context.
func NewContext() serde.Context {
	return serde.NewContext(jsonEngine{})
}

// GetFormat implements serde.ContextEngine.
func (jsonEngine) GetFormat() serde.Format {
	return serde.FormatJSON
}

// Marshal implements serde.ContextEngine.
func (jsonEngine) Marshal(m interface{}) ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal implements serde.ContextEngine.
func (jsonEngine) Unmarshal(data []byte, m interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	err := dec.Decode(m)
	if err != nil {
		return err
	}

	if dec.More() {
		return xerrors.New("unexpected data after the message")
	}

	return nil
}
