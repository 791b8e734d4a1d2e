package loader

import (
	"os"
	"path/filepath"

	"golang.org/x/xerrors"
)

// keyPerm is the permission of a key file, read-only for the owner.
const keyPerm os.FileMode = 0400

// fileSystem is the set of file operations the loader relies on.
type fileSystem interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
}

// osFS is the file system of the operating system.
type osFS struct{}

func (osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (osFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (osFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// fileLoader loads a key from a file, and creates the file with a new key if
// it does not exist.
//
// - implements loader.Loader
type fileLoader struct {
	path string
	fs   fileSystem
}

// NewFileLoader creates a new loader for the key file at the path.
func NewFileLoader(path string) Loader {
	return fileLoader{
		path: path,
		fs:   osFS{},
	}
}

// LoadOrCreate implements loader.Loader. The parent directories of a new key
// file are created when missing.
func (l fileLoader) LoadOrCreate(g Generator) ([]byte, error) {
	data, err := l.Load()
	if err == nil {
		return data, nil
	}

	if !xerrors.Is(err, os.ErrNotExist) {
		return nil, xerrors.Errorf("failed to load file: %v", err)
	}

	data, err = g.Generate()
	if err != nil {
		return nil, xerrors.Errorf("generator failed: %v", err)
	}

	err = l.fs.MkdirAll(filepath.Dir(l.path), 0700)
	if err != nil {
		return nil, xerrors.Errorf("while creating directory: %v", err)
	}

	err = l.fs.WriteFile(l.path, data, keyPerm)
	if err != nil {
		return nil, xerrors.Errorf("while writing file: %v", err)
	}

	return data, nil
}

// Load implements loader.Loader. An empty file is invalid.
func (l fileLoader) Load() ([]byte, error) {
	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		return nil, xerrors.Errorf("while reading file: %w", err)
	}

	if len(data) == 0 {
		return nil, xerrors.Errorf("file '%s' is empty", l.path)
	}

	return data, nil
}
