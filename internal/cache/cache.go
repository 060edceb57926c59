// Package cache provides the bounded latest-value cache shared by
// every partition flavor (spec section 4.3).
//
// Grounded on Keyhole-Koro-InsightifyCore's
// internal/gateway/repository/projectstore/store.go, which wraps
// github.com/hashicorp/golang-lru/v2 as a read-through metadata cache
// (artifactCache *lru.Cache[string, []ProjectArtifact]) alongside a
// RWMutex-guarded map — the same shape this package adapts to hold one
// value per primary key.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is used when a partition is constructed without an
// explicit cache size.
const DefaultCapacity = 1000

// Cache is a bounded, least-recently-used mapping from primary key to
// its latest value. A capacity of zero disables caching entirely: Get
// always misses and Set is a no-op, matching spec section 4.3.
type Cache struct {
	lru *lru.Cache[string, any]
}

// New returns a Cache of the given capacity. Negative capacities are
// treated as DefaultCapacity.
func New(capacity int) *Cache {
	if capacity < 0 {
		capacity = DefaultCapacity
	}
	if capacity == 0 {
		return &Cache{}
	}
	c, err := lru.New[string, any](capacity)
	if err != nil {
		// lru.New only fails for capacity <= 0, already excluded above.
		c, _ = lru.New[string, any](DefaultCapacity)
	}
	return &Cache{lru: c}
}

// Get returns the cached value for key and whether it was present.
func (c *Cache) Get(key string) (any, bool) {
	if c == nil || c.lru == nil {
		return nil, false
	}
	return c.lru.Get(key)
}

// Set inserts or refreshes the cached value for key, evicting the
// least-recently-used entry if the cache is at capacity.
func (c *Cache) Set(key string, value any) {
	if c == nil || c.lru == nil {
		return
	}
	c.lru.Add(key, value)
}

// Has reports whether key is cached, without affecting recency.
func (c *Cache) Has(key string) bool {
	if c == nil || c.lru == nil {
		return false
	}
	return c.lru.Contains(key)
}

// Delete evicts key from the cache, if present.
func (c *Cache) Delete(key string) {
	if c == nil || c.lru == nil {
		return
	}
	c.lru.Remove(key)
}
