// Package disk implements the result cache: one JSON file per semantic
// key under a configurable directory, bounded by total size and entry
// age. Expiry and eviction run inside Get/Set, there is no sweeper
// goroutine.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lookbook-ai/lookbook/pkg/cache"
	"github.com/lookbook-ai/lookbook/pkg/models"
)

const entryExt = ".json"

// Cache is a disk-backed, size- and age-bounded result cache keyed by
// semantic key.
type Cache struct {
	dir        string
	maxBytes   int64
	expiration time.Duration

	hits          atomic.Int64
	misses        atomic.Int64
	invalidations atomic.Int64

	mu        sync.Mutex // guards sizeBytes and eviction
	sizeBytes int64
}

// entry is the on-disk record format.
type entry struct {
	Timestamp   time.Time       `json:"timestamp"`
	Data        json.RawMessage `json:"data"`
	SemanticKey string          `json:"semantic_key"`
}

// New creates the cache directory if needed and verifies it is
// writable. Tracked size starts from whatever entries already exist on
// disk, so a restarted process still enforces the bound against them.
func New(dir string, maxSizeMB int, expiration time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", cache.ErrUnavailable, dir, err)
	}

	probe := filepath.Join(dir, ".probe")
	if err := os.WriteFile(probe, []byte("probe"), 0o644); err != nil {
		return nil, fmt.Errorf("%w: write probe in %s: %v", cache.ErrUnavailable, dir, err)
	}
	_ = os.Remove(probe)

	c := &Cache{
		dir:        dir,
		maxBytes:   int64(maxSizeMB) * 1024 * 1024,
		expiration: expiration,
	}
	c.sizeBytes = c.scanSize()
	return c, nil
}

// Get returns the cached payload for the input's semantic key. Expired
// or corrupt entries are deleted and reported as misses; only invalid
// input surfaces as an error.
func (c *Cache) Get(in cache.Input) (json.RawMessage, bool, error) {
	key, err := cache.SemanticKey(in)
	if err != nil {
		return nil, false, err
	}

	path := c.entryPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		// Not-exist covers both "never cached" and a file deleted
		// between a concurrent caller's existence check and this read.
		// Anything else is an unreadable entry: drop it.
		if !errors.Is(err, fs.ErrNotExist) {
			c.removeEntry(path, 0)
			c.invalidations.Add(1)
		}
		c.misses.Add(1)
		return nil, false, nil
	}

	var e entry
	if len(data) == 0 || json.Unmarshal(data, &e) != nil {
		c.removeEntry(path, int64(len(data)))
		c.invalidations.Add(1)
		c.misses.Add(1)
		return nil, false, nil
	}

	if !time.Now().Before(e.Timestamp.Add(c.expiration)) {
		c.removeEntry(path, int64(len(data)))
		c.misses.Add(1)
		return nil, false, nil
	}

	c.hits.Add(1)
	return e.Data, true, nil
}

// Set caches payload under the input's semantic key. The size bound is
// enforced before the write, so a single oversized entry may exceed the
// bound until the next Set.
func (c *Cache) Set(in cache.Input, payload any) error {
	if payload == nil {
		return fmt.Errorf("%w: nil payload", cache.ErrInvalidInput)
	}

	key, err := cache.SemanticKey(in)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: unserializable payload: %v", cache.ErrInvalidInput, err)
	}

	record, err := json.Marshal(entry{
		Timestamp:   time.Now(),
		Data:        raw,
		SemanticKey: key,
	})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.enforceSizeLocked()

	path := c.entryPath(key)
	var oldSize int64
	if fi, err := os.Stat(path); err == nil {
		oldSize = fi.Size()
	}

	// Temp file + rename so a concurrent reader never sees a partial
	// entry. Last writer wins on the same key, which is fine: the value
	// is a pure function of the key's content.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, record, 0o644); err != nil {
		return fmt.Errorf("%w: write entry: %v", cache.ErrUnavailable, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: rename entry: %v", cache.ErrUnavailable, err)
	}

	c.sizeBytes += int64(len(record)) - oldSize
	return nil
}

// Stats returns a snapshot of the running counters.
func (c *Cache) Stats() models.CacheStats {
	c.mu.Lock()
	size := c.sizeBytes
	c.mu.Unlock()

	return models.CacheStats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Invalidations: c.invalidations.Load(),
		SizeBytes:     size,
		Entries:       c.countEntries(),
	}
}

// Clear removes cache entries. If expiredOnly is true, only expired
// entries are removed.
func (c *Cache) Clear(expiredOnly bool) error {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("list cache dir: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), entryExt) {
			continue
		}
		path := filepath.Join(c.dir, f.Name())
		if expiredOnly {
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			var e entry
			if json.Unmarshal(data, &e) == nil && now.Before(e.Timestamp.Add(c.expiration)) {
				continue
			}
		}
		if fi, err := os.Stat(path); err == nil {
			c.sizeBytes -= fi.Size()
		}
		_ = os.Remove(path)
	}
	if c.sizeBytes < 0 {
		c.sizeBytes = 0
	}
	return nil
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+entryExt)
}

// removeEntry deletes a bad or expired entry and adjusts tracked size.
// Pass size 0 when the entry could not be read; its on-disk size is
// looked up instead.
func (c *Cache) removeEntry(path string, size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if size == 0 {
		if fi, err := os.Stat(path); err == nil {
			size = fi.Size()
		}
	}
	if err := os.Remove(path); err == nil {
		c.sizeBytes -= size
		if c.sizeBytes < 0 {
			c.sizeBytes = 0
		}
	}
}

// enforceSizeLocked evicts oldest-modified entries until tracked size
// fits the bound. Each pass lists the directory, an O(n) walk that is
// acceptable at this cache's expected scale.
func (c *Cache) enforceSizeLocked() {
	for c.sizeBytes > c.maxBytes {
		path, size, ok := c.oldestEntry()
		if !ok {
			c.sizeBytes = 0
			return
		}
		if err := os.Remove(path); err != nil {
			return
		}
		c.sizeBytes -= size
	}
}

func (c *Cache) oldestEntry() (path string, size int64, ok bool) {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		return "", 0, false
	}

	var oldest time.Time
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), entryExt) {
			continue
		}
		fi, err := f.Info()
		if err != nil {
			continue
		}
		if !ok || fi.ModTime().Before(oldest) {
			oldest = fi.ModTime()
			path = filepath.Join(c.dir, f.Name())
			size = fi.Size()
			ok = true
		}
	}
	return path, size, ok
}

func (c *Cache) scanSize() int64 {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		return 0
	}
	var total int64
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), entryExt) {
			continue
		}
		if fi, err := f.Info(); err == nil {
			total += fi.Size()
		}
	}
	return total
}

func (c *Cache) countEntries() int64 {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		return 0
	}
	var n int64
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), entryExt) {
			n++
		}
	}
	return n
}
