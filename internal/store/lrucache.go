package store

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedBackend decorates a Backend with an in-memory LRU cache of
// recently read bytes. Writes still go straight through to the wrapped
// backend; only Get/Has consult the cache first. Since digests are
// content-addressed, cache entries never go stale.
type CachedBackend struct {
	inner Backend
	cache *lru.Cache[string, []byte]
}

// NewCachedBackend wraps inner with an LRU cache holding up to size
// entries.
func NewCachedBackend(inner Backend, size int) (*CachedBackend, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CachedBackend{inner: inner, cache: cache}, nil
}

func (b *CachedBackend) Put(ctx context.Context, digest string, data []byte) error {
	if err := b.inner.Put(ctx, digest, data); err != nil {
		return err
	}
	b.cache.Add(digest, data)
	return nil
}

func (b *CachedBackend) Has(ctx context.Context, digest string) (bool, error) {
	if b.cache.Contains(digest) {
		return true, nil
	}
	return b.inner.Has(ctx, digest)
}

func (b *CachedBackend) Get(ctx context.Context, digest string) ([]byte, bool, error) {
	if data, ok := b.cache.Get(digest); ok {
		return data, true, nil
	}
	data, ok, err := b.inner.Get(ctx, digest)
	if err != nil || !ok {
		return data, ok, err
	}
	b.cache.Add(digest, data)
	return data, true, nil
}
