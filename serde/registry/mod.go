// Package registry maps a serialization format to the engine that implements
// it for one kind of message.
//
// Each message package owns a registry, and the format packages register
// their engine in it when they are imported. A lookup never fails: an unknown
// format resolves to an engine that returns an error on use.
package registry

import (
	"go.dedis.ch/ballot/serde"
)

// Registry is an interface to register and get format engines for a specific
// format.
type Registry interface {
	// Register sets the engine of the format, replacing any previous one.
	Register(serde.Format, serde.FormatEngine)

	// Get returns the engine associated with the format.
	Get(serde.Format) serde.FormatEngine
}
