package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-photo-insight/internal/logger"
	"go-photo-insight/pkg/models"
)

// entry is one cached result with its accounting metadata.
type entry struct {
	key      Key
	result   *models.ImageAnalysisResult
	inserted time.Time
	cost     int64
}

// ResultCache is a bounded, thread-safe LRU store of analysis results.
// Eviction triggers once either the entry-count or the approximate byte
// ceiling is exceeded. Orphaned entries for changed files are reclaimed only
// by LRU pressure or Clear; there is no background sweep.
type ResultCache struct {
	mu         sync.Mutex
	entries    map[Key]*list.Element
	lru        *list.List // front = most recently used
	maxEntries int
	maxBytes   int64
	totalBytes int64

	hits, misses uint64
}

// NewResultCache creates a cache bounded by entry count and byte cost.
func NewResultCache(maxEntries int, maxBytes int64) *ResultCache {
	return &ResultCache{
		entries:    make(map[Key]*list.Element),
		lru:        list.New(),
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
	}
}

// Get returns the cached result for key, marking it most recently used.
func (c *ResultCache) Get(key Key) (*models.ImageAnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.lru.MoveToFront(el)
	c.hits++
	return el.Value.(*entry).result, true
}

// Put stores a result under key, evicting least recently used entries until
// the ceilings hold.
func (c *ResultCache) Put(key Key, result *models.ImageAnalysisResult) {
	if result == nil {
		return
	}
	cost := result.ApproxCost()

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		old := el.Value.(*entry)
		c.totalBytes += cost - old.cost
		old.result = result
		old.cost = cost
		old.inserted = time.Now()
		c.lru.MoveToFront(el)
	} else {
		el := c.lru.PushFront(&entry{
			key:      key,
			result:   result,
			inserted: time.Now(),
			cost:     cost,
		})
		c.entries[key] = el
		c.totalBytes += cost
	}

	for (c.lru.Len() > c.maxEntries || c.totalBytes > c.maxBytes) && c.lru.Len() > 1 {
		c.evictOldest()
	}
}

// Invalidate removes a single entry.
func (c *ResultCache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
}

// Clear drops every entry.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]*list.Element)
	c.lru.Init()
	c.totalBytes = 0
}

// Len returns the current entry count.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns hit/miss counters and current footprint.
func (c *ResultCache) Stats() (hits, misses uint64, entries int, bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, c.lru.Len(), c.totalBytes
}

func (c *ResultCache) evictOldest() {
	el := c.lru.Back()
	if el == nil {
		return
	}
	e := el.Value.(*entry)
	c.remove(el)
	logger.WithFields(logrus.Fields{
		"key":  e.key,
		"cost": e.cost,
		"age":  time.Since(e.inserted).String(),
	}).Debug("Evicted cached analysis result")
}

func (c *ResultCache) remove(el *list.Element) {
	e := el.Value.(*entry)
	c.lru.Remove(el)
	delete(c.entries, e.key)
	c.totalBytes -= e.cost
}
