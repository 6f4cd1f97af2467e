// Package sheets caches spreadsheet name-to-ID resolution so repeated
// writes to the same sheet do not re-query the external store.
package sheets

import (
	"sync"
	"time"
)

type idEntry struct {
	id         string
	insertedAt time.Time
}

// IDCache is a small in-memory cache of spreadsheet IDs keyed by sheet
// name, bounded by entry count and age.
type IDCache struct {
	mu      sync.Mutex
	entries map[string]idEntry
	maxSize int
	ttl     time.Duration
}

// NewIDCache creates a cache holding at most maxSize names, each live
// for ttl.
func NewIDCache(maxSize int, ttl time.Duration) *IDCache {
	return &IDCache{
		entries: make(map[string]idEntry),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns the spreadsheet ID for a sheet name. Expired entries are
// deleted on read.
func (c *IDCache) Get(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[name]
	if !ok {
		return "", false
	}
	if time.Since(e.insertedAt) > c.ttl {
		delete(c.entries, name)
		return "", false
	}
	return e.id, true
}

// Set stores a name-to-ID mapping with a fresh timestamp. When the
// cache is full the entry with the oldest insertion time is evicted,
// regardless of whether it has expired.
func (c *IDCache) Set(name, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[name]; !exists && len(c.entries) >= c.maxSize {
		var oldestName string
		var oldest time.Time
		first := true
		for n, e := range c.entries {
			if first || e.insertedAt.Before(oldest) {
				oldest = e.insertedAt
				oldestName = n
				first = false
			}
		}
		if !first {
			delete(c.entries, oldestName)
		}
	}

	c.entries[name] = idEntry{id: id, insertedAt: time.Now()}
}

// Len reports the number of stored entries, expired or not.
func (c *IDCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
