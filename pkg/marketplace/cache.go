package marketplace

import (
	"sync"
	"time"
)

// DefaultCacheTTL bounds how stale a served listing may be
const DefaultCacheTTL = 5 * time.Minute

// Cache memoizes remote listings keyed by source identity (and query
// parameters for the aggregator). Entries older than the TTL are treated as
// absent so lookups recompute and overwrite rather than serve stale data.
// The cache is an optimization only: everything must behave correctly, if
// slower, when it is empty. No eviction beyond TTL expiry; the entry count
// is bounded by distinct sources and queries in practice.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry

	// now is overridable in tests
	now func() time.Time
}

type cacheEntry struct {
	value     any
	fetchedAt time.Time
}

// NewCache creates a cache with the given TTL; zero means DefaultCacheTTL
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached value for the key, or a miss when absent or older
// than the TTL.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.fetchedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

// Put stores the value for the key, overwriting any previous entry
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, fetchedAt: c.now()}
}

// Invalidate drops a single key, used after a source is mutated
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
