package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	c := New(DefaultConfig())
	defer c.Close()
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	require.False(t, ok)

	c.Set(ctx, "key", 42)
	value, ok := c.Get(ctx, "key")
	require.True(t, ok)
	require.Equal(t, 42, value)

	c.Delete(ctx, "key")
	_, ok = c.Get(ctx, "key")
	require.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := New(Config{DefaultTTL: 10 * time.Millisecond, CleanupInterval: time.Hour, MaxItems: 10})
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "key", "value")
	time.Sleep(20 * time.Millisecond)
	_, ok := c.Get(ctx, "key")
	require.False(t, ok)
}

func TestCacheEviction(t *testing.T) {
	c := New(Config{DefaultTTL: time.Hour, CleanupInterval: time.Hour, MaxItems: 2})
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Set(ctx, "c", 3)

	count := 0
	for _, key := range []string{"a", "b", "c"} {
		if _, ok := c.Get(ctx, key); ok {
			count++
		}
	}
	require.Equal(t, 2, count)
}

func TestCacheOverwriteAtCapacity(t *testing.T) {
	c := New(Config{DefaultTTL: time.Hour, CleanupInterval: time.Hour, MaxItems: 2})
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Set(ctx, "a", 10)

	value, ok := c.Get(ctx, "a")
	require.True(t, ok)
	require.Equal(t, 10, value)

	value, ok = c.Get(ctx, "b")
	require.True(t, ok)
	require.Equal(t, 2, value)
}

func TestBuildKey(t *testing.T) {
	require.Equal(t, BuildKey("a", "b"), BuildKey("a", "b"))
	require.NotEqual(t, BuildKey("a", "b"), BuildKey("ab"))
	require.NotEqual(t, BuildKey("a", "b"), BuildKey("b", "a"))
}
