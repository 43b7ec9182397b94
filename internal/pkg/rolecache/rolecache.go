package rolecache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache memoizes resolved roles per user with a bounded TTL.
//
// It replaces ad-hoc "last fetched" memoization: the cache is injected where
// needed, entries expire on their own, and sign-out invalidates explicitly.
type Cache[V any] struct {
	lru *lru.LRU[int64, V]
}

// New creates a role cache holding at most size entries for at most ttl each.
func New[V any](size int, ttl time.Duration) *Cache[V] {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = time.Minute
	}

	return &Cache[V]{lru: lru.NewLRU[int64, V](size, nil, ttl)}
}

// Get returns the cached value for userID, if present and unexpired.
func (c *Cache[V]) Get(userID int64) (V, bool) {
	return c.lru.Get(userID)
}

// Put stores the value for userID.
func (c *Cache[V]) Put(userID int64, v V) {
	c.lru.Add(userID, v)
}

// Invalidate drops the entry for userID. Called on sign-out.
func (c *Cache[V]) Invalidate(userID int64) {
	c.lru.Remove(userID)
}
