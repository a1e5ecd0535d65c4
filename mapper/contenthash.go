package mapper

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"

	"github.com/event4u-app/data-helpers/expr"
)

// ContentHashCache stores derived artifacts keyed by name and invalidated
// by content: an entry is served only while the hash of its declared
// source (a mapping definition, a template) is unchanged. Safe for
// concurrent use; computation happens outside the lock so a recomputing
// caller never blocks readers of other keys or deadlocks on itself.
type ContentHashCache struct {
	mu      sync.Mutex
	entries map[string]contentEntry
}

type contentEntry struct {
	hash  string
	value any
}

// NewContentHashCache returns an empty cache.
func NewContentHashCache() *ContentHashCache {
	return &ContentHashCache{entries: make(map[string]contentEntry)}
}

// GetOrCompute returns the cached artifact for key while sourceContent
// still hashes the same, otherwise runs compute and replaces the entry.
// Errors are not cached.
func (c *ContentHashCache) GetOrCompute(key string, sourceContent any, compute func() (any, error)) (any, error) {
	hash := contentHash(sourceContent)

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && entry.hash == hash {
		return entry.value, nil
	}

	v, err := compute()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = contentEntry{hash: hash, value: v}
	c.mu.Unlock()
	return v, nil
}

// Invalidate drops one entry.
func (c *ContentHashCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Stats reports occupancy. The cache is unbounded, so MaxSize is zero and
// no usage percentage is computed.
func (c *ContentHashCache) Stats() expr.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return expr.CacheStats{Size: len(c.entries)}
}

// Clear drops every entry.
func (c *ContentHashCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]contentEntry)
	c.mu.Unlock()
}

// contentHash is the SHA-256 of the canonical (key-sorted) JSON encoding
// of v, so logically equal sources hash equal regardless of map order.
func contentHash(v any) string {
	sum := sha256.Sum256([]byte(oj.JSON(v, &ojg.Options{Sort: true})))
	return hex.EncodeToString(sum[:])
}
