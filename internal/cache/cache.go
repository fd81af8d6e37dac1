package cache

import (
	"fmt"
	"sync"

	"opsdesk/internal/domain/models"
)

// Key derives the deterministic cache key for aggregates of a kind, with an
// optional year scope. Independent of any particular cache backend.
func Key(kind models.Kind, year *int) string {
	if year == nil {
		return string(kind)
	}
	return fmt.Sprintf("%s:%d", kind, *year)
}

// AggregateCache is an in-memory cache for derived read aggregates (yearly
// dashboard summaries, list pages), indexed by Key.
type AggregateCache struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewAggregateCache creates an empty cache.
func NewAggregateCache() *AggregateCache {
	return &AggregateCache{entries: make(map[string]any)}
}

// Get returns the cached value for key, if any.
func (c *AggregateCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores a value under key.
func (c *AggregateCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Delete drops the given keys. Missing keys are fine; invalidation is
// redundancy-safe.
func (c *AggregateCache) Delete(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
}

// Len returns the number of cached entries.
func (c *AggregateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
