package lrucache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	cache := New[uint64, string](2)
	cache.Add(1, "one")
	cache.Add(2, "two")

	// Touch 1 so that 2 becomes the eviction candidate.
	value, ok := cache.Get(1)
	require.True(t, ok)
	require.Equal(t, "one", value)

	cache.Add(3, "three")
	require.True(t, cache.Has(1))
	require.False(t, cache.Has(2))
	require.True(t, cache.Has(3))
	require.Equal(t, 2, cache.Len())
}

func TestReplaceRemoveAndClear(t *testing.T) {
	cache := New[string, int](3)
	cache.Add("a", 1)
	cache.Add("a", 2)
	value, ok := cache.Get("a")
	require.True(t, ok)
	require.Equal(t, 2, value)
	require.Equal(t, 1, cache.Len())

	cache.Remove("a")
	_, ok = cache.Get("a")
	require.False(t, ok)

	cache.Add("b", 1)
	cache.Add("c", 1)
	cache.Clear()
	require.Equal(t, 0, cache.Len())
}
