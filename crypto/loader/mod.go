// Package loader reads the private key of a participant from a persistent
// storage, or generates it the first time it is needed.
package loader

// Generator creates the binary form of a new key.
type Generator interface {
	Generate() ([]byte, error)
}

// Loader is the storage of a single key.
type Loader interface {
	// LoadOrCreate returns the stored key, or generates a new one with the
	// generator and stores it when none exists.
	LoadOrCreate(Generator) ([]byte, error)

	// Load returns the stored key, or an error if it does not exist.
	Load() ([]byte, error)
}
