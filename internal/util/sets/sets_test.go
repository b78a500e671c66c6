package sets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetBasics(t *testing.T) {
	s := New("a", "b")
	require.True(t, s.Has("a"))
	require.False(t, s.Has("c"))

	require.True(t, s.Add("c"))
	require.False(t, s.Add("c"))
	require.Equal(t, 3, s.Len())

	s.Delete("a")
	require.False(t, s.Has("a"))

	var nilSet Set[string]
	require.False(t, nilSet.Has("x"))
	require.Equal(t, 0, nilSet.Len())
}

func TestUnionAndSorted(t *testing.T) {
	u := Union(New("b", "a"), New("c"), nil, New("a"))
	require.Equal(t, []string{"a", "b", "c"}, Sorted(u))

	clone := u.Clone()
	clone.Add("z")
	require.False(t, u.Has("z"))
}
