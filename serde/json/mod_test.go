package json

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/ballot/serde"
)

func TestJSONEngine_GetFormat(t *testing.T) {
	ctx := NewContext()

	require.Equal(t, serde.FormatJSON, ctx.GetFormat())
}

func TestJSONEngine_Marshal(t *testing.T) {
	ctx := NewContext()

	data, err := ctx.Marshal(struct{ Name string }{Name: "Fireball"})
	require.NoError(t, err)
	require.Equal(t, `{"Name":"Fireball"}`, string(data))
}

func TestJSONEngine_Unmarshal(t *testing.T) {
	ctx := NewContext()

	var m struct{ Count uint64 }
	err := ctx.Unmarshal([]byte(`{"Count":2}`), &m)
	require.NoError(t, err)
	require.Equal(t, uint64(2), m.Count)

	var names []string
	err = ctx.Unmarshal([]byte(` ["Fireball","Invisibility"] `), &names)
	require.NoError(t, err)
	require.Equal(t, []string{"Fireball", "Invisibility"}, names)

	err = ctx.Unmarshal([]byte(`{`), &m)
	require.Error(t, err)

	err = ctx.Unmarshal([]byte(`{"Count":2,"Name":"Fireball"}`), &m)
	require.EqualError(t, err, `json: unknown field "Name"`)

	err = ctx.Unmarshal([]byte(`{"Count":2}{"Count":3}`), &m)
	require.EqualError(t, err, "unexpected data after the message")
}
