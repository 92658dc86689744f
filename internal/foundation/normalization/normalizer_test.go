package normalization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type color string

func newColors() *Normalizer[color] {
	return NewNormalizer(map[string]color{
		"red":     "red",
		"crimson": "red",
		"Blue":    "blue",
	}, "red")
}

func TestLookup(t *testing.T) {
	n := newColors()
	tests := []struct {
		raw  string
		want color
		ok   bool
	}{
		{"red", "red", true},
		{"  CRIMSON ", "red", true},
		{"blue", "blue", true},
		{"", "red", true},
		{"green", "", false},
	}
	for _, tt := range tests {
		got, ok := n.Lookup(tt.raw)
		require.Equal(t, tt.ok, ok, tt.raw)
		require.Equal(t, tt.want, got, tt.raw)
	}
}

func TestNormalizeWithError(t *testing.T) {
	n := newColors()
	_, err := n.NormalizeWithError("green")
	require.EqualError(t, err, `invalid value "green", valid options: [blue crimson red]`)

	v, err := n.NormalizeWithError("Blue")
	require.NoError(t, err)
	require.Equal(t, color("blue"), v)
}

func TestIsValidAndKeys(t *testing.T) {
	n := newColors()
	require.True(t, n.IsValid("blue"))
	require.False(t, n.IsValid("crimson"))

	keys := n.ValidKeys()
	keys[0] = "changed"
	require.Equal(t, []string{"blue", "crimson", "red"}, n.ValidKeys())
}
