package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestViewGetBeforeExpiry(t *testing.T) {
	v := NewView[[]string](time.Minute)
	v.Set([]string{"main", "develop"})

	got, ok := v.Get()
	require.True(t, ok)
	require.Equal(t, []string{"main", "develop"}, got)
}

func TestViewGetAfterExpiryMisses(t *testing.T) {
	v := NewView[string](20 * time.Millisecond)
	v.Set("branches")

	time.Sleep(40 * time.Millisecond)

	_, ok := v.Get()
	require.False(t, ok, "expired value must behave like an empty cache")
}

func TestViewEmptyCacheMisses(t *testing.T) {
	v := NewView[int](time.Minute)
	_, ok := v.Get()
	require.False(t, ok)
}

func TestViewInvalidateForcesMiss(t *testing.T) {
	v := NewView[int](time.Hour)
	v.Set(42)

	// Invalidate immediately after Set; elapsed time is irrelevant.
	v.Invalidate()

	_, ok := v.Get()
	require.False(t, ok)
}

func TestViewSetReplacesValue(t *testing.T) {
	v := NewView[int](time.Minute)
	v.Set(1)
	v.Set(2)

	got, ok := v.Get()
	require.True(t, ok)
	require.Equal(t, 2, got)
}

func TestViewSetAfterInvalidate(t *testing.T) {
	v := NewView[string](time.Minute)
	v.Set("stale")
	v.Invalidate()
	v.Set("fresh")

	got, ok := v.Get()
	require.True(t, ok)
	require.Equal(t, "fresh", got)
}

func TestViewTTL(t *testing.T) {
	v := NewView[int](30 * time.Second)
	require.Equal(t, 30*time.Second, v.TTL())
}
