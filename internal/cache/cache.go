// Package cache provides a small TTL cache for upstream table fetches:
// load through a fetch function on miss or expiry, keep serving the last
// good value when a refresh fails.
package cache

import (
	"context"
	"log"
	"sync"
	"time"
)

type entry[T any] struct {
	value   T
	expires time.Time
	loaded  bool
}

type Cache[T any] struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*entry[T]
}

func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]*entry[T]{},
	}
}

// Get returns the cached value for key, loading it when absent or expired.
// A failed refresh falls back to the previous value; only a cold miss
// propagates the load error.
func (c *Cache[T]) Get(ctx context.Context, key string, load func(ctx context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.now().Before(e.expires) {
		return e.value, nil
	}

	v, err := load(ctx)
	if err != nil {
		if ok && e.loaded {
			log.Printf("cache: refresh %q failed, serving stale: %v", key, err)
			return e.value, nil
		}
		var zero T
		return zero, err
	}

	c.entries[key] = &entry[T]{value: v, expires: c.now().Add(c.ttl), loaded: true}
	return v, nil
}

// Invalidate drops the cached value for key.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
