package registry

import (
	"sort"
	"sync"

	"go.dedis.ch/ballot/serde"
	"golang.org/x/xerrors"
)

// SimpleRegistry is a registry backed by a map. It is safe to use from
// several goroutines.
//
// - implements registry.Registry
type SimpleRegistry struct {
	sync.RWMutex
	store map[serde.Format]serde.FormatEngine
}

// NewSimpleRegistry returns a new empty registry.
func NewSimpleRegistry() *SimpleRegistry {
	return &SimpleRegistry{
		store: make(map[serde.Format]serde.FormatEngine),
	}
}

// Register implements registry.Registry.
func (r *SimpleRegistry) Register(name serde.Format, f serde.FormatEngine) {
	r.Lock()
	r.store[name] = f
	r.Unlock()
}

// Get implements registry.Registry. It falls back to an engine that always
// fails when the format is unknown.
func (r *SimpleRegistry) Get(name serde.Format) serde.FormatEngine {
	r.RLock()
	engine := r.store[name]
	r.RUnlock()

	if engine == nil {
		return unknownFormat{name: name}
	}

	return engine
}

// Formats returns the sorted list of the registered formats.
func (r *SimpleRegistry) Formats() []serde.Format {
	r.RLock()
	defer r.RUnlock()

	formats := make([]serde.Format, 0, len(r.store))
	for name := range r.store {
		formats = append(formats, name)
	}

	sort.Slice(formats, func(i, j int) bool {
		return formats[i] < formats[j]
	})

	return formats
}

// unknownFormat is the engine of a format without implementation.
//
// - implements serde.FormatEngine
type unknownFormat struct {
	name serde.Format
}

// Encode implements serde.FormatEngine. It always returns an error.
func (f unknownFormat) Encode(serde.Context, serde.Message) ([]byte, error) {
	return nil, xerrors.Errorf("format '%s' is not implemented", f.name)
}

// Decode implements serde.FormatEngine. It always returns an error.
func (f unknownFormat) Decode(serde.Context, []byte) (serde.Message, error) {
	return nil, xerrors.Errorf("format '%s' is not implemented", f.name)
}
