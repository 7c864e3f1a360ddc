package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache wraps a loader function with a cache. Misses fall
// through to the loader and the result is stored for the next caller.
type ReadThroughCache[K comparable, V any, I any] struct {
	cache           CacheManager[K, V]
	fn              func(ctx context.Context, input I) (V, error)
	shouldSkipCache bool
}

func NewReadThroughCache[K comparable, V any, I any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, input I) (V, error),
	shouldSkipCache bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{
		cache:           cache,
		fn:              fn,
		shouldSkipCache: shouldSkipCache,
	}
}

func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if r.shouldSkipCache {
		return r.fn(ctx, input)
	}

	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}

	value, err := r.fn(ctx, input)
	if err != nil {
		return value, err
	}

	r.cache.Set(ctx, key, value, ttl)

	return value, nil
}

// Update rewrites the cached value for key through fn and stores the
// result. fn receives the current cached value and whether one was
// present; returning false leaves the cache untouched.
func (r *ReadThroughCache[K, V, I]) Update(ctx context.Context, key K, ttl time.Duration, fn func(value V, ok bool) (V, bool)) {
	if r.shouldSkipCache {
		return
	}

	value, ok := r.cache.Get(ctx, key)
	if next, store := fn(value, ok); store {
		r.cache.Set(ctx, key, next, ttl)
	}
}

// Invalidate drops the cached value for key so the next Get reloads it.
func (r *ReadThroughCache[K, V, I]) Invalidate(ctx context.Context, key K) error {
	if r.shouldSkipCache {
		return nil
	}

	return r.cache.Delete(ctx, key)
}
