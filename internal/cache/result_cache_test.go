package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"go-photo-insight/pkg/models"
)

func testResult(id string) *models.ImageAnalysisResult {
	return &models.ImageAnalysisResult{
		ID:        id,
		Timestamp: time.Now(),
		FusedClassifications: []models.ClassificationResult{
			{Label: "landscape", Confidence: 0.9, Source: models.SourceFused},
		},
	}
}

func TestResultCache_GetMiss(t *testing.T) {
	c := NewResultCache(4, 1<<20)

	if _, ok := c.Get(Key("absent")); ok {
		t.Error("Expected miss for absent key")
	}

	hits, misses, _, _ := c.Stats()
	if hits != 0 || misses != 1 {
		t.Errorf("Expected 0 hits / 1 miss, got %d / %d", hits, misses)
	}
}

func TestResultCache_PutThenGet(t *testing.T) {
	c := NewResultCache(4, 1<<20)
	key := KeyForFile("/photos/a.jpg", time.Unix(100, 0))

	c.Put(key, testResult("r1"))

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Expected hit after Put")
	}
	if got.ID != "r1" {
		t.Errorf("Expected result r1, got %s", got.ID)
	}
}

func TestResultCache_ModTimeChangeMisses(t *testing.T) {
	c := NewResultCache(4, 1<<20)

	c.Put(KeyForFile("/photos/a.jpg", time.Unix(100, 0)), testResult("old"))

	// Same path, newer modification time: different key, cold lookup.
	if _, ok := c.Get(KeyForFile("/photos/a.jpg", time.Unix(200, 0))); ok {
		t.Error("Expected miss after modification time change")
	}
}

func TestResultCache_SameModTimeHits(t *testing.T) {
	c := NewResultCache(4, 1<<20)
	modTime := time.Unix(100, 500)

	c.Put(KeyForFile("/photos/a.jpg", modTime), testResult("r1"))

	if _, ok := c.Get(KeyForFile("/photos/a.jpg", modTime)); !ok {
		t.Error("Expected hit for identical path and modification time")
	}
}

func TestResultCache_EvictsByEntryCount(t *testing.T) {
	c := NewResultCache(2, 1<<30)

	for i := 0; i < 3; i++ {
		key := KeyForFile(fmt.Sprintf("/photos/%d.jpg", i), time.Unix(int64(i), 0))
		c.Put(key, testResult(fmt.Sprintf("r%d", i)))
	}

	if c.Len() != 2 {
		t.Fatalf("Expected 2 entries after eviction, got %d", c.Len())
	}
	// Entry 0 was least recently used.
	if _, ok := c.Get(KeyForFile("/photos/0.jpg", time.Unix(0, 0))); ok {
		t.Error("Expected oldest entry evicted")
	}
	if _, ok := c.Get(KeyForFile("/photos/2.jpg", time.Unix(2, 0))); !ok {
		t.Error("Expected newest entry retained")
	}
}

func TestResultCache_GetRefreshesRecency(t *testing.T) {
	c := NewResultCache(2, 1<<30)
	key0 := KeyForFile("/photos/0.jpg", time.Unix(0, 0))
	key1 := KeyForFile("/photos/1.jpg", time.Unix(1, 0))
	key2 := KeyForFile("/photos/2.jpg", time.Unix(2, 0))

	c.Put(key0, testResult("r0"))
	c.Put(key1, testResult("r1"))

	// Touch key0 so key1 becomes the eviction candidate.
	c.Get(key0)
	c.Put(key2, testResult("r2"))

	if _, ok := c.Get(key0); !ok {
		t.Error("Expected recently used entry retained")
	}
	if _, ok := c.Get(key1); ok {
		t.Error("Expected least recently used entry evicted")
	}
}

func TestResultCache_EvictsByByteCost(t *testing.T) {
	small := testResult("small")
	budget := 2 * small.ApproxCost()
	c := NewResultCache(100, budget)

	for i := 0; i < 4; i++ {
		key := KeyForFile(fmt.Sprintf("/photos/%d.jpg", i), time.Unix(int64(i), 0))
		c.Put(key, testResult(fmt.Sprintf("r%d", i)))
	}

	_, _, entries, bytes := c.Stats()
	if bytes > budget {
		t.Errorf("Byte footprint %d exceeds budget %d", bytes, budget)
	}
	if entries >= 4 {
		t.Errorf("Expected byte-pressure eviction, still have %d entries", entries)
	}
}

func TestResultCache_KeepsAtLeastOneEntry(t *testing.T) {
	c := NewResultCache(10, 1) // budget smaller than any result

	key := KeyForFile("/photos/huge.jpg", time.Unix(0, 0))
	c.Put(key, testResult("huge"))

	if c.Len() != 1 {
		t.Errorf("Expected the sole oversized entry kept, got %d entries", c.Len())
	}
}

func TestResultCache_PutReplacesExisting(t *testing.T) {
	c := NewResultCache(4, 1<<20)
	key := KeyForFile("/photos/a.jpg", time.Unix(100, 0))

	c.Put(key, testResult("first"))
	c.Put(key, testResult("second"))

	if c.Len() != 1 {
		t.Fatalf("Expected replacement, not duplication; got %d entries", c.Len())
	}
	got, _ := c.Get(key)
	if got.ID != "second" {
		t.Errorf("Expected replaced result, got %s", got.ID)
	}
}

func TestResultCache_Invalidate(t *testing.T) {
	c := NewResultCache(4, 1<<20)
	key := KeyForFile("/photos/a.jpg", time.Unix(100, 0))

	c.Put(key, testResult("r1"))
	c.Invalidate(key)

	if _, ok := c.Get(key); ok {
		t.Error("Expected miss after Invalidate")
	}
	// Invalidating an absent key is a no-op.
	c.Invalidate(Key("never-stored"))
}

func TestResultCache_Clear(t *testing.T) {
	c := NewResultCache(4, 1<<20)
	c.Put(KeyForFile("/a", time.Unix(0, 0)), testResult("a"))
	c.Put(KeyForFile("/b", time.Unix(0, 0)), testResult("b"))

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Expected empty cache after Clear, got %d entries", c.Len())
	}
	_, _, _, bytes := c.Stats()
	if bytes != 0 {
		t.Errorf("Expected zero byte accounting after Clear, got %d", bytes)
	}
}

func TestResultCache_ConcurrentAccess(t *testing.T) {
	c := NewResultCache(16, 1<<20)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := KeyForFile(fmt.Sprintf("/photos/%d.jpg", j%20), time.Unix(int64(n), 0))
				c.Put(key, testResult("r"))
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 16 {
		t.Errorf("Entry ceiling violated under concurrency: %d", c.Len())
	}
}
