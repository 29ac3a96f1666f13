// Package cache memoizes prefix digests by path for the streaming pipeline.
//
// The cache is bounded. When it is full, the oldest tenth of the entries
// (at least one) is evicted in insertion order, so eviction cost is
// proportional to the evicted batch rather than to the cache size.
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/ring"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

// DefaultCapacity is the default maximum number of entries.
const DefaultCapacity = 10000

// HashCache is a bounded path to prefix digest store with FIFO eviction.
// It is safe for concurrent use.
type HashCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]types.Digest
	order    *ring.Buffer[string]

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    int64
	Misses  int64
	Size    int
	HitRate float64
}

// New creates a cache holding up to capacity entries.
// A capacity of zero or less uses DefaultCapacity.
func New(capacity int) *HashCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &HashCache{
		capacity: capacity,
		entries:  make(map[string]types.Digest, capacity),
		order:    ring.New[string](capacity),
	}
}

// Get returns the digest cached for path and counts a hit or miss.
func (c *HashCache) Get(path string) (types.Digest, bool) {
	c.mu.Lock()
	d, ok := c.entries[path]
	c.mu.Unlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return d, ok
}

// Put stores digest for path. Updating an existing path keeps its position
// in the eviction order.
func (c *HashCache) Put(path string, digest types.Digest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[path]; ok {
		c.entries[path] = digest
		return
	}

	if len(c.entries) >= c.capacity {
		c.evict()
	}
	c.entries[path] = digest
	c.order.Push(path)
}

// evict must be called with c.mu held.
func (c *HashCache) evict() {
	for _, path := range c.order.PopFront(max(1, c.capacity/10)) {
		delete(c.entries, path)
	}
}

// Len returns the number of cached entries.
func (c *HashCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the maximum number of entries.
func (c *HashCache) Capacity() int { return c.capacity }

// Clear removes every entry and resets the counters.
func (c *HashCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.order.Clear()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns a snapshot of the counters.
func (c *HashCache) Stats() Stats {
	s := Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.Len(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}
