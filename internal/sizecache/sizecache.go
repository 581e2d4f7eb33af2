// Package sizecache memoizes recursive directory sizes so listings do not
// recompute them on every render. The cache is purely derived data: losing
// it entirely is equivalent to a cold start.
package sizecache

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dux/filedeck/internal/metrics"
)

// Cache maps absolute directory paths to their last computed byte size.
// Absence of an entry means "unknown, recompute", which is distinct from a
// cached zero. Reads may come from interactive work while writes come from
// background computation; the write lock is the single-writer barrier.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]int64

	// Deduplicates concurrent computations of the same directory.
	group singleflight.Group

	snapshotPath string // "" disables persistence
}

// New creates an in-memory cache.
func New() *Cache {
	return &Cache{entries: make(map[string]int64)}
}

// NewPersistent creates a cache that can snapshot itself to snapshotPath.
// The snapshot is advisory; Load failures are safe to ignore.
func NewPersistent(snapshotPath string) *Cache {
	c := New()
	c.snapshotPath = snapshotPath
	return c
}

// CachedSize returns the last computed size for path. The second return
// value is false if the size was never computed or has been invalidated.
func (c *Cache) CachedSize(path string) (int64, bool) {
	c.mu.RLock()
	size, ok := c.entries[path]
	c.mu.RUnlock()
	if ok {
		metrics.RecordSizeCacheHit()
	} else {
		metrics.RecordSizeCacheMiss()
	}
	return size, ok
}

// SetCachedSize writes or overwrites the cached value for path.
func (c *Cache) SetCachedSize(path string, size int64) {
	c.mu.Lock()
	c.entries[path] = size
	c.mu.Unlock()
}

// Invalidate removes the cached value for path, forcing recomputation on
// the next read.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ComputeSize returns the recursive size of dir, serving from the cache
// when possible. Concurrent requests for the same directory share one
// computation. The walk honors ctx cancellation.
func (c *Cache) ComputeSize(ctx context.Context, dir string) (int64, error) {
	if size, ok := c.CachedSize(dir); ok {
		return size, nil
	}

	v, err, _ := c.group.Do(dir, func() (interface{}, error) {
		size, err := walkSize(ctx, dir)
		if err != nil {
			return int64(0), err
		}
		c.SetCachedSize(dir, size)
		return size, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// walkSize sums regular file sizes under dir. Unreadable subtrees are
// skipped rather than failing the whole computation.
func walkSize(ctx context.Context, dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Save writes the cache snapshot to disk (temp file then rename).
func (c *Cache) Save() error {
	if c.snapshotPath == "" {
		return nil
	}

	c.mu.RLock()
	data, err := json.Marshal(c.entries)
	c.mu.RUnlock()
	if err != nil {
		return err
	}

	tmp := c.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.snapshotPath); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Load restores a snapshot if one exists. A missing or corrupt snapshot
// leaves the cache empty; the snapshot is advisory only.
func (c *Cache) Load() error {
	if c.snapshotPath == "" {
		return nil
	}

	data, err := os.ReadFile(c.snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	entries := make(map[string]int64)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}
