package serde

// ContextEngine is the encoding of a format, used by the format engines to
// marshal their JSON-like messages.
type ContextEngine interface {
	GetFormat() Format

	Marshal(message interface{}) ([]byte, error)

	Unmarshal(data []byte, message interface{}) error
}

// Context is given to the messages and the factories when they are
// serialized or deserialized. It carries the encoding and the factories of
// the nested messages, like the identities inside a ballot.
type Context struct {
	ContextEngine

	factories map[interface{}]Factory
}

// NewContext returns a context with the engine and no factory.
func NewContext(engine ContextEngine) Context {
	return Context{
		ContextEngine: engine,
		factories:     map[interface{}]Factory{},
	}
}

// GetFactory returns the factory of the key, or nil.
func (ctx Context) GetFactory(key interface{}) Factory {
	return ctx.factories[key]
}

// WithFactory returns a copy of the context with the factory set for the key.
// The given context is not modified.
func WithFactory(ctx Context, key interface{}, f Factory) Context {
	factories := make(map[interface{}]Factory, len(ctx.factories)+1)
	for k, v := range ctx.factories {
		factories[k] = v
	}

	factories[key] = f
	ctx.factories = factories

	return ctx
}
