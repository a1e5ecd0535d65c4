package expr

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the expression cache when the host gives none.
const DefaultCacheSize = 1000

// CacheStats is a snapshot of cache occupancy for inspection endpoints.
type CacheStats struct {
	Size            int
	MaxSize         int
	UsagePercentage float64
}

// Cache is a bounded LRU of parsed expressions keyed by raw text. It is
// safe for concurrent use. Parsing happens outside the cache lock
// (compute-then-insert), so a recursive or concurrent parse of the same
// text cannot deadlock; at worst both parse and one result wins.
type Cache struct {
	lru     *lru.Cache[string, *Expression]
	maxSize int
}

// NewCache returns a cache bounded to maxSize entries; values <= 0 fall
// back to DefaultCacheSize.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	// lru.New only fails for non-positive sizes, which are normalized
	// above.
	c, _ := lru.New[string, *Expression](maxSize)
	return &Cache{lru: c, maxSize: maxSize}
}

// Parse returns the cached expression for raw, parsing and inserting on
// miss. Exceeding capacity evicts the least-recently-used entry.
func (c *Cache) Parse(raw string) (*Expression, error) {
	if x, ok := c.lru.Get(raw); ok {
		return x, nil
	}
	x, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	c.lru.Add(raw, x)
	return x, nil
}

// Stats reports current occupancy.
func (c *Cache) Stats() CacheStats {
	size := c.lru.Len()
	return CacheStats{
		Size:            size,
		MaxSize:         c.maxSize,
		UsagePercentage: float64(size) / float64(c.maxSize) * 100,
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.lru.Purge()
}
