// Package cache provides a generic TTL + capacity bounded cache used to
// hydrate entities that are absent from an interaction's resolved snapshot.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Fetcher loads a value that is not present in the cache. The boolean
// reports whether the value exists at the source.
type Fetcher[T any] func(ctx context.Context, id string) (T, bool, error)

type entry[T any] struct {
	value    T
	expires  time.Time
	accessed time.Time
}

// Cache is a TTL-evicted, size-bounded map safe for concurrent callers.
// A zero TTL disables expiry; a zero maxSize disables the capacity bound.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]entry[T]
	ttl     time.Duration
	maxSize int
	fetch   Fetcher[T]
}

// Option configures a Cache.
type Option[T any] func(*Cache[T])

// WithFetcher sets the function used by Fetch on cache misses.
func WithFetcher[T any](f Fetcher[T]) Option[T] {
	return func(c *Cache[T]) { c.fetch = f }
}

// WithMaxSize bounds the number of cached entries. When full, the stalest
// entry is evicted to make room.
func WithMaxSize[T any](n int) Option[T] {
	return func(c *Cache[T]) { c.maxSize = n }
}

// New creates a Cache whose entries expire after ttl.
func New[T any](ttl time.Duration, opts ...Option[T]) *Cache[T] {
	c := &Cache[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for id, if present and not expired.
func (c *Cache[T]) Get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		var zero T
		return zero, false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		delete(c.entries, id)
		var zero T
		return zero, false
	}

	e.accessed = time.Now()
	c.entries[id] = e

	return e.value, true
}

// Put stores a value, evicting the stalest entry if the cache is full.
func (c *Cache[T]) Put(id string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[id]; !exists && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictStalest()
	}

	now := time.Now()
	e := entry[T]{value: value, accessed: now}
	if c.ttl > 0 {
		e.expires = now.Add(c.ttl)
	}
	c.entries[id] = e
}

// Delete removes an entry.
func (c *Cache[T]) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Len returns the current number of entries, expired ones included.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear empties the cache.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[T])
}

// Fetch returns the cached value for id, falling back to the configured
// Fetcher on a miss and caching the result.
func (c *Cache[T]) Fetch(ctx context.Context, id string) (T, bool, error) {
	if v, ok := c.Get(id); ok {
		return v, true, nil
	}

	var zero T
	if c.fetch == nil {
		return zero, false, nil
	}

	v, ok, err := c.fetch(ctx, id)
	if err != nil {
		return zero, false, fmt.Errorf("cache.Cache.Fetch(%q): %w", id, err)
	}
	if !ok {
		return zero, false, nil
	}

	c.Put(id, v)

	return v, true, nil
}

// Sweep removes all expired entries and returns how many were removed.
func (c *Cache[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, e := range c.entries {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(c.entries, id)
			removed++
		}
	}

	return removed
}

// StartSweeping sweeps expired entries on the given interval until ctx is
// cancelled.
func (c *Cache[T]) StartSweeping(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// evictStalest removes the least recently accessed entry. Callers must hold mu.
func (c *Cache[T]) evictStalest() {
	var (
		stalest string
		oldest  time.Time
		found   bool
	)
	for id, e := range c.entries {
		if !found || e.accessed.Before(oldest) {
			stalest = id
			oldest = e.accessed
			found = true
		}
	}
	if found {
		delete(c.entries, stalest)
	}
}
