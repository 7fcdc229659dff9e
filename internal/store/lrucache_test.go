package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingBackend struct {
	Backend
	gets int
}

func (c *countingBackend) Get(ctx context.Context, digest string) ([]byte, bool, error) {
	c.gets++
	return c.Backend.Get(ctx, digest)
}

func TestCachedBackendServesRepeatedGetsFromCache(t *testing.T) {
	inner := &countingBackend{Backend: NewMemoryBackend()}
	cached, err := NewCachedBackend(inner, 16)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, cached.Put(ctx, "d1", []byte("hi")))

	for i := 0; i < 5; i++ {
		data, ok, err := cached.Get(ctx, "d1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "hi", string(data))
	}
	assert.Equal(t, 0, inner.gets, "value written through Put should be cached without a backend round trip")
}

func TestCachedBackendFallsThroughOnMiss(t *testing.T) {
	inner := &countingBackend{Backend: NewMemoryBackend()}
	inner.Backend.(*MemoryBackend).data["d2"] = []byte("direct")
	cached, err := NewCachedBackend(inner, 16)
	require.NoError(t, err)
	ctx := context.Background()

	data, ok, err := cached.Get(ctx, "d2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "direct", string(data))
	assert.Equal(t, 1, inner.gets)

	// Second read now hits the cache.
	_, _, err = cached.Get(ctx, "d2")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.gets)
}
