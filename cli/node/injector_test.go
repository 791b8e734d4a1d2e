package node

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReflectInjector_Resolve(t *testing.T) {
	inj := NewInjector()
	inj.Inject("ballot:store")

	var bucket string
	require.NoError(t, inj.Resolve(&bucket))
	require.Equal(t, "ballot:store", bucket)

	var index uint64
	err := inj.Resolve(&index)
	require.EqualError(t, err, "couldn't find dependency for 'uint64'")

	err = inj.Resolve((*interface{})(nil))
	require.EqualError(t, err, "reflect value '<nil>' is invalid")

	err = inj.Resolve(index)
	require.EqualError(t, err, "expect a pointer")
}

func TestReflectInjector_Inject(t *testing.T) {
	inj := NewInjector().(*reflectInjector)

	inj.Inject("Fireball")
	inj.Inject("Invisibility")
	require.Len(t, inj.deps, 1)

	var name string
	require.NoError(t, inj.Resolve(&name))
	require.Equal(t, "Invisibility", name)

	inj.Inject(chairperson("alice"))
	inj.Inject(&voter{})
	require.Len(t, inj.deps, 3)

	var id interface{ String() string }
	require.NoError(t, inj.Resolve(&id))
	require.Equal(t, "alice", id.String())

	var v *voter
	require.NoError(t, inj.Resolve(&v))
	require.Equal(t, "bob", v.String())
}

// -----------------------------------------------------------------------------
// Utility functions

type chairperson string

func (c chairperson) String() string {
	return string(c)
}

type voter struct{}

func (*voter) String() string {
	return "bob"
}
