package dedup

import (
	"sync"
	"time"
)

type indexEntry struct {
	url        string
	insertedAt time.Time
}

// Index maps perceptual hashes to the URL they were computed from. It
// is bounded by entry count and age; expired entries are removed by
// Sweep or treated as absent during matching, never by a background
// goroutine.
//
// Matching is an O(n) scan over all live entries. That is deliberate:
// a Hamming-threshold match has no exact key to look up, and the index
// stays small (one session's worth of images).
type Index struct {
	mu         sync.Mutex
	entries    map[uint64]indexEntry
	maxEntries int
	expiry     time.Duration
}

// NewIndex creates an index holding at most maxEntries hashes, each
// live for expiry.
func NewIndex(maxEntries int, expiry time.Duration) *Index {
	return &Index{
		entries:    make(map[uint64]indexEntry),
		maxEntries: maxEntries,
		expiry:     expiry,
	}
}

// Sweep removes expired entries.
func (ix *Index) Sweep() {
	now := time.Now()
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for h, e := range ix.entries {
		if now.Sub(e.insertedAt) > ix.expiry {
			delete(ix.entries, h)
		}
	}
}

// Match returns the stored URL of the first live entry within threshold
// Hamming distance of hash, excluding entries recorded for selfURL.
func (ix *Index) Match(hash uint64, threshold int, selfURL string) (string, bool) {
	now := time.Now()
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for h, e := range ix.entries {
		if now.Sub(e.insertedAt) > ix.expiry {
			continue
		}
		if e.url == selfURL {
			continue
		}
		if Distance(hash, h) <= threshold {
			return e.url, true
		}
	}
	return "", false
}

// Add records a hash for a URL, evicting the oldest entry when full.
func (ix *Index) Add(hash uint64, url string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if len(ix.entries) >= ix.maxEntries {
		var oldestHash uint64
		var oldest time.Time
		first := true
		for h, e := range ix.entries {
			if first || e.insertedAt.Before(oldest) {
				oldest = e.insertedAt
				oldestHash = h
				first = false
			}
		}
		if !first {
			delete(ix.entries, oldestHash)
		}
	}

	ix.entries[hash] = indexEntry{url: url, insertedAt: time.Now()}
}

// Len reports the number of entries, including any not yet swept.
func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.entries)
}
