// Package cache provides a generic loader cache combining LRU storage with
// singleflight to coalesce concurrent loads for the same key.
package cache

import (
	"context"

	"github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// LoaderCache loads values on miss via a callback and coalesces concurrent loads for the
// same key. The shared load runs detached from the caller's cancellation, so a caller that
// gives up does not fail the other waiters or leave the cache unpopulated. Failed loads are
// never stored.
type LoaderCache[K comparable, V any] struct {
	lru         *lru.Cache[string, V]
	group       singleflight.Group
	keyToString func(K) string
}

// NewLoaderCache creates a loader cache with the given max entries and key serializer.
func NewLoaderCache[K comparable, V any](maxEntries int, keyToString func(K) string) (*LoaderCache[K, V], error) {
	lruCache, err := lru.New[string, V](maxEntries)
	if err != nil {
		return nil, err
	}

	return &LoaderCache[K, V]{
		lru:         lruCache,
		keyToString: keyToString,
	}, nil
}

// Get returns the value for key, loading it via load on cache miss.
func (c *LoaderCache[K, V]) Get(ctx context.Context, key K, load func(context.Context, K) (V, error)) (V, error) {
	v, _, err := c.GetWithStats(ctx, key, load)

	return v, err
}

// GetWithStats is like Get but also reports whether the value came from cache.
// If ctx ends while waiting for a load, ctx.Err() is returned and the load keeps running.
func (c *LoaderCache[K, V]) GetWithStats(
	ctx context.Context, key K, load func(context.Context, K) (V, error),
) (V, bool, error) {
	var zero V

	keyStr := c.keyToString(key)
	if v, ok := c.lru.Get(keyStr); ok {
		return v, true, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(keyStr, func() (any, error) {
		loaded, err := load(loadCtx, key)
		if err != nil {
			return zero, err
		}

		c.lru.Add(keyStr, loaded)

		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}

		return res.Val.(V), false, nil
	}
}

// Peek returns the cached value for key without loading or updating recency.
func (c *LoaderCache[K, V]) Peek(key K) (V, bool) {
	return c.lru.Peek(c.keyToString(key))
}

// Len returns the number of entries in the cache.
func (c *LoaderCache[K, V]) Len() int {
	return c.lru.Len()
}
