package cache

import (
	"time"

	"github.com/karlseguin/ccache/v3"
)

// Cache is a bounded in-memory cache with per-entry TTL
type Cache[T any] struct {
	lru *ccache.Cache[T]
}

// New creates a cache holding at most maxSize entries
func New[T any](maxSize int64) *Cache[T] {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &Cache[T]{lru: ccache.New(ccache.Configure[T]().MaxSize(maxSize))}
}

// Set stores a value in the cache with a given TTL
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	c.lru.Set(key, value, ttl)
}

// Get retrieves a value from the cache if it hasn't expired
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	item := c.lru.Get(key)
	if item == nil || item.Expired() {
		return zero, false
	}
	return item.Value(), true
}

// Delete removes a key from the cache
func (c *Cache[T]) Delete(key string) {
	c.lru.Delete(key)
}

// Clear removes all items from the cache
func (c *Cache[T]) Clear() {
	c.lru.Clear()
}

// Invalidate removes all items matching a prefix
func (c *Cache[T]) Invalidate(prefix string) int {
	return c.lru.DeletePrefix(prefix)
}

// Close stops the background eviction worker
func (c *Cache[T]) Close() {
	c.lru.Stop()
}
