// Package extract memoizes expensive per-unit text extraction behind
// a fixed-capacity cache shared by search and speech.
package extract

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the default number of cached units.
const DefaultCapacity = 20

// Extractor is the slice of the rendering surface the cache needs.
type Extractor interface {
	UnitText(ctx context.Context, unit int) (string, error)
}

// Cache is a bounded, insertion-ordered text cache. Eviction is pure
// FIFO rather than access recency: read patterns in this domain are
// sequential, so the added bookkeeping of LRU buys nothing.
//
// Failed extractions are returned to the caller but never cached, so
// a transiently failing unit is retried on the next request.
type Cache struct {
	mu       sync.Mutex
	source   Extractor
	capacity int
	entries  map[int]string
	order    []int // insertion order, oldest first

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewCache creates a cache over source. A capacity of 0 or less uses
// DefaultCapacity.
func NewCache(source Extractor, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		source:   source,
		capacity: capacity,
		entries:  make(map[int]string, capacity),
		order:    make([]int, 0, capacity),
	}
}

// UnitText returns the text of one unit, extracting and caching on
// miss. The cache satisfies the same Extractor shape it wraps, so it
// drops in wherever the surface would.
func (c *Cache) UnitText(ctx context.Context, unit int) (string, error) {
	c.mu.Lock()
	if text, ok := c.entries[unit]; ok {
		c.mu.Unlock()
		c.hits.Add(1)
		return text, nil
	}
	c.mu.Unlock()

	c.misses.Add(1)

	// Extraction happens outside the lock so a slow surface does not
	// serialize unrelated lookups.
	text, err := c.source.UnitText(ctx, unit)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[unit]; ok {
		// A concurrent extraction of the same unit won the race; keep
		// the existing entry and its insertion position.
		return c.entries[unit], nil
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		c.evictions.Add(1)
	}

	c.entries[unit] = text
	c.order = append(c.order, unit)
	return text, nil
}

// Contains reports whether a unit is currently cached.
func (c *Cache) Contains(unit int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[unit]
	return ok
}

// Len returns the number of cached units.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int]string, c.capacity)
	c.order = c.order[:0]
}

// Stats returns cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	size := len(c.entries)
	c.mu.Unlock()

	return Stats{
		Size:      size,
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Stats holds cache counters.
type Stats struct {
	Size      int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}
