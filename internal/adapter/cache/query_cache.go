package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"bloxmate/internal/domain"
	"bloxmate/internal/port"
)

// QueryCache remembers retrieval results for the index it was last used with.
// Entries are keyed by normalized question and k, expire after ttl, and are
// all dropped as soon as a lookup names a different index fingerprint.
type QueryCache struct {
	mu          sync.Mutex
	fingerprint string
	entries     map[string]*cacheEntry
	order       []string
	maxSize     int
	ttl         time.Duration
	now         func() time.Time
}

type cacheEntry struct {
	results []domain.ScoredChunk
	stored  time.Time
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func questionKey(question string, k int) string {
	data := []byte(strings.Join(strings.Fields(strings.ToLower(question)), " "))
	data = append(data, byte(k>>8), byte(k))
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// Get returns the results cached for question under the index fingerprint.
func (c *QueryCache) Get(fingerprint, question string, k int) ([]domain.ScoredChunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.useIndex(fingerprint)
	key := questionKey(question, k)
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.stored) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}
	c.moveToEnd(key)
	return entry.results, true
}

// Put stores results for question, evicting the least recently used entry
// when the cache is full.
func (c *QueryCache) Put(fingerprint, question string, k int, results []domain.ScoredChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.useIndex(fingerprint)
	key := questionKey(question, k)
	if _, ok := c.entries[key]; ok {
		c.moveToEnd(key)
	} else {
		if len(c.entries) >= c.maxSize {
			c.evictOldest()
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = &cacheEntry{results: results, stored: c.now()}
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// useIndex empties the cache when the index it was filled from is replaced.
func (c *QueryCache) useIndex(fingerprint string) {
	if fingerprint == c.fingerprint {
		return
	}
	c.fingerprint = fingerprint
	clear(c.entries)
	c.order = c.order[:0]
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// fingerprinter is implemented by retrievers whose index can be replaced.
type fingerprinter interface {
	Fingerprint() string
}

// CachedRetriever answers repeated questions from a QueryCache. Results are
// scoped to the fingerprint of the wrapped retriever's index, so swapping in
// a rebuilt index never serves rows from the old one.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	var fingerprint string
	if f, ok := r.retriever.(fingerprinter); ok {
		fingerprint = f.Fingerprint()
	}

	if results, hit := r.cache.Get(fingerprint, query, k); hit {
		return results, nil
	}

	results, err := r.retriever.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	r.cache.Put(fingerprint, query, k, results)
	return results, nil
}
