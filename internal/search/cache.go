package search

import (
	"sync"
	"time"
)

// resultCache caches search results per normalized query with a TTL so
// identical queries within the window reuse prior results.
type resultCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]*cacheItem
}

type cacheItem struct {
	results    []Result
	expiration time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	c := &resultCache{
		ttl:   ttl,
		items: make(map[string]*cacheItem),
	}

	// Start cleanup goroutine
	go c.cleanupExpired()

	return c
}

// Get retrieves cached results for a query key
func (c *resultCache) Get(key string) ([]Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists {
		return nil, false
	}

	if time.Now().After(item.expiration) {
		return nil, false
	}

	return item.results, true
}

// Set stores results for a query key
func (c *resultCache) Set(key string, results []Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &cacheItem{
		results:    results,
		expiration: time.Now().Add(c.ttl),
	}
}

// cleanupExpired periodically removes expired items
func (c *resultCache) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for key, item := range c.items {
			if now.After(item.expiration) {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}
