package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/ballot/internal/testing/fake"
	"go.dedis.ch/ballot/serde"
)

func TestSimpleRegistry_Register(t *testing.T) {
	registry := NewSimpleRegistry()

	registry.Register(serde.FormatJSON, fake.Format{})
	registry.Register(serde.FormatJSON, fake.NewBadFormat())
	require.Equal(t, []serde.Format{serde.FormatJSON}, registry.Formats())

	registry.Register(serde.Format("A"), fake.Format{})
	require.Equal(t, []serde.Format{"A", serde.FormatJSON}, registry.Formats())

	// The last registration wins.
	require.Equal(t, fake.NewBadFormat(), registry.Get(serde.FormatJSON))
}

func TestSimpleRegistry_Get(t *testing.T) {
	registry := NewSimpleRegistry()

	registry.Register(serde.FormatJSON, fake.Format{})

	format := registry.Get(serde.FormatJSON)
	require.Equal(t, fake.Format{}, format)

	format = registry.Get(serde.Format("unknown"))
	require.NotNil(t, format)

	_, err := format.Encode(serde.NewContext(nil), nil)
	require.EqualError(t, err, "format 'unknown' is not implemented")

	_, err = format.Decode(serde.NewContext(nil), nil)
	require.EqualError(t, err, "format 'unknown' is not implemented")
}

func TestSimpleRegistry_Concurrent(t *testing.T) {
	registry := NewSimpleRegistry()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()

		for i := 0; i < 100; i++ {
			registry.Register(serde.FormatJSON, fake.Format{})
		}
	}()

	go func() {
		defer wg.Done()

		for i := 0; i < 100; i++ {
			registry.Get(serde.FormatJSON)
		}
	}()

	wg.Wait()

	require.Len(t, registry.Formats(), 1)
}
