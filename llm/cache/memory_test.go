package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheGetSet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))

	value, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), value)
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)

	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire after its ttl")
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	now = now.Add(24 * time.Hour)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is not an error
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestMemoryCacheDeleteByPrefix(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "chunk:t1:c1", []byte("a"), 0))
	require.NoError(t, c.Set(ctx, "chunk:t1:c2", []byte("b"), 0))
	require.NoError(t, c.Set(ctx, "chunk:t2:c1", []byte("c"), 0))

	require.NoError(t, c.DeleteByPrefix(ctx, "chunk:t1:"))

	_, ok, _ := c.Get(ctx, "chunk:t1:c1")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "chunk:t1:c2")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "chunk:t2:c1")
	assert.True(t, ok, "other tenants' keys must survive")
}

func TestMemoryCacheCopiesValues(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	original := []byte("value")
	require.NoError(t, c.Set(ctx, "k", original, 0))
	original[0] = 'X'

	stored, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("value"), stored)

	// Mutating the returned slice must not poison the cache
	stored[0] = 'Y'
	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("value"), again)
}
