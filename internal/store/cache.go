// Package store provides an in-memory extraction result cache using a Bloom filter and an LRU cache.
package store

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"amlinks/pkg/musiclink"
)

// bloomRebuildFactor is how many insertions per cache slot are allowed before the
// Bloom filter is rebuilt from the live keys.
const bloomRebuildFactor = 2

// ResultCache is a thread-safe, bounded cache of extraction results keyed by input text.
// The Bloom filter answers most misses without touching the LRU.
type ResultCache struct {
	bloom                  *bloom.BloomFilter
	lru                    *lru.Cache[string, musiclink.ExtractionResult]
	mutex                  sync.RWMutex
	maxEntries             int
	bloomFalsePositiveRate float64
	insertions             int
	hits                   uint64
	misses                 uint64
}

// NewResultCache creates a cache holding at most maxEntries results.
func NewResultCache(maxEntries int, bloomFalsePositiveRate float64) (*ResultCache, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", maxEntries)
	}
	if bloomFalsePositiveRate <= 0 || bloomFalsePositiveRate >= 1 {
		return nil, fmt.Errorf("bloom false positive rate must be in (0, 1), got %v", bloomFalsePositiveRate)
	}

	lruCache, err := lru.New[string, musiclink.ExtractionResult](maxEntries)
	if err != nil {
		return nil, err
	}

	return &ResultCache{
		bloom:                  newBloom(maxEntries, bloomFalsePositiveRate),
		lru:                    lruCache,
		maxEntries:             maxEntries,
		bloomFalsePositiveRate: bloomFalsePositiveRate,
	}, nil
}

// Get returns a copy of the cached result for text.
func (c *ResultCache) Get(text string) (musiclink.ExtractionResult, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.bloom.TestString(text) {
		c.misses++
		return musiclink.ExtractionResult{}, false
	}

	result, ok := c.lru.Get(text)
	if !ok {
		c.misses++
		return musiclink.ExtractionResult{}, false
	}

	c.hits++
	return cloneResult(result), true
}

// Add stores a copy of result for text.
func (c *ResultCache) Add(text string, result musiclink.ExtractionResult) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.lru.Add(text, cloneResult(result))
	c.bloom.AddString(text)
	c.insertions++

	// Evicted keys stay in the filter, so rebuild it before it saturates.
	if c.insertions > c.maxEntries*bloomRebuildFactor {
		c.rebuildBloom()
	}
}

// Size returns the number of cached results.
func (c *ResultCache) Size() int {
	return c.lru.Len()
}

// Stats contains cache statistics
type Stats struct {
	Entries    int    `json:"entries"`
	MaxEntries int    `json:"max_entries"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
}

// GetStats returns statistics about the cache for monitoring/debugging
func (c *ResultCache) GetStats() Stats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return Stats{
		Entries:    c.Size(),
		MaxEntries: c.maxEntries,
		Hits:       c.hits,
		Misses:     c.misses,
	}
}

func (c *ResultCache) rebuildBloom() {
	c.bloom = newBloom(c.maxEntries, c.bloomFalsePositiveRate)
	for _, key := range c.lru.Keys() {
		c.bloom.AddString(key)
	}
	c.insertions = c.lru.Len()
}

func newBloom(maxEntries int, falsePositiveRate float64) *bloom.BloomFilter {
	return bloom.NewWithEstimates(uint(maxEntries), falsePositiveRate)
}

func cloneResult(r musiclink.ExtractionResult) musiclink.ExtractionResult {
	return musiclink.ExtractionResult{
		Links: append([]string(nil), r.Links...),
		Types: append([]musiclink.ResourceType(nil), r.Types...),
	}
}
