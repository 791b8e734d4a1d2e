// Package serde defines the primitives to serialize and deserialize (serde)
// the messages of the ballot node, in particular the ballot states that are
// persisted in the store.
//
// A message is serialized by looking up the format engine registered for the
// format of the context. This allows the data models to stay independent of
// the encoding.
package serde

import "io"

// Format is the identifier of a format implementation.
type Format string

// FormatJSON is the identifier for JSON formats.
const FormatJSON Format = "JSON"

// Message is the interface that a data model must implement to be serialized.
type Message interface {
	// Serialize returns the data for the message according to the format of
	// the context.
	Serialize(ctx Context) ([]byte, error)
}

// Factory is the interface to implement to deserialize messages.
type Factory interface {
	// Deserialize returns the message populated from the data according to the
	// format of the context.
	Deserialize(ctx Context, data []byte) (Message, error)
}

// Fingerprinter is an interface to fingerprint an object.
type Fingerprinter interface {
	// Fingerprint writes a deterministic binary representation of the object
	// into the writer.
	Fingerprint(writer io.Writer) error
}

// FormatEngine is the interface that a format implementation must implement.
type FormatEngine interface {
	// Encode returns the bytes of the message according to the format.
	Encode(ctx Context, message Message) ([]byte, error)

	// Decode returns the message populated from the data according to the
	// format.
	Decode(ctx Context, data []byte) (Message, error)
}
