package embedding

import (
	"context"
	"sync"
)

// MemoryCache is an in-process embedding cache for cache-less deployments
// and tests.  Entries never expire; the corpus of distinct description
// hashes is small relative to process memory.
//
// Concurrent insertions for the same key are benign: both writers hold the
// identical deterministic vector, so whichever lands first is correct.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string][]float32
}

// NewMemoryCache constructs an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string][]float32)}
}

// Get returns the cached vector and true, or nil and false on a miss.
func (c *MemoryCache) Get(_ context.Context, contentHash string) ([]float32, bool, error) {
	c.mu.RLock()
	vec, ok := c.data[contentHash]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true, nil
}

// Put stores a copy of vec under the content hash.  An existing entry is
// kept (first writer wins).
func (c *MemoryCache) Put(_ context.Context, contentHash string, vec []float32) error {
	stored := make([]float32, len(vec))
	copy(stored, vec)

	c.mu.Lock()
	if _, exists := c.data[contentHash]; !exists {
		c.data[contentHash] = stored
	}
	c.mu.Unlock()
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
