package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/ballot/internal/testing/fake"
)

func TestFileLoader_LoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "alice.key")

	generator := fakeGenerator{
		calls: fake.NewCall(),
	}

	loader := NewFileLoader(path)

	data, err := loader.LoadOrCreate(generator)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)
	require.Equal(t, 1, generator.calls.Len())

	stat, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, keyPerm, stat.Mode().Perm())

	// The second time, the key is read from the file.
	data, err = loader.LoadOrCreate(generator)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)
	require.Equal(t, 1, generator.calls.Len())
}

func TestFileLoader_LoadOrCreate_Failures(t *testing.T) {
	loader := fileLoader{path: "alice.key", fs: fakeFS{}}

	_, err := loader.LoadOrCreate(fakeGenerator{calls: fake.NewCall(), err: fake.GetError()})
	require.EqualError(t, err, fake.Err("generator failed"))

	loader.fs = fakeFS{errMkdir: fake.GetError()}
	_, err = loader.LoadOrCreate(fakeGenerator{calls: fake.NewCall()})
	require.EqualError(t, err, fake.Err("while creating directory"))

	loader.fs = fakeFS{errWrite: fake.GetError()}
	_, err = loader.LoadOrCreate(fakeGenerator{calls: fake.NewCall()})
	require.EqualError(t, err, fake.Err("while writing file"))

	loader.fs = fakeFS{errRead: fake.GetError()}
	_, err = loader.LoadOrCreate(fakeGenerator{calls: fake.NewCall()})
	require.EqualError(t, err, fake.Err("failed to load file: while reading file"))
}

func TestFileLoader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "private.key")

	loader := NewFileLoader(path)

	_, err := loader.Load()
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, nil, 0600))

	_, err = loader.Load()
	require.EqualError(t, err, "file '"+path+"' is empty")

	require.NoError(t, os.WriteFile(path, []byte{4, 5}, 0600))

	data, err := loader.Load()
	require.NoError(t, err)
	require.Equal(t, []byte{4, 5}, data)
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeGenerator struct {
	calls *fake.Call
	err   error
}

func (g fakeGenerator) Generate() ([]byte, error) {
	g.calls.Add("Generate")

	return []byte{1, 2, 3}, g.err
}

type fakeFS struct {
	errRead  error
	errWrite error
	errMkdir error
}

func (fs fakeFS) ReadFile(string) ([]byte, error) {
	if fs.errRead != nil {
		return nil, fs.errRead
	}

	return nil, os.ErrNotExist
}

func (fs fakeFS) WriteFile(string, []byte, os.FileMode) error {
	return fs.errWrite
}

func (fs fakeFS) MkdirAll(string, os.FileMode) error {
	return fs.errMkdir
}
