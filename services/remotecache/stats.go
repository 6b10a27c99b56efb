package remotecache

import (
	"sync"

	"xtreamsync/models"
)

// Stats accumulates the cache's observability counters, matching
// models.CacheStats's shape so callers can snapshot it directly.
type Stats struct {
	mu sync.Mutex

	hits, misses, evictions               int64
	prefetchHits, prefetchMisses          int64
	perTypeHits, perTypeMisses            map[models.ContentType]int64
}

func (s *Stats) recordHit(contentType models.ContentType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits++
	if s.perTypeHits == nil {
		s.perTypeHits = make(map[models.ContentType]int64)
	}
	s.perTypeHits[contentType]++
}

func (s *Stats) recordMiss(contentType models.ContentType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.misses++
	if s.perTypeMisses == nil {
		s.perTypeMisses = make(map[models.ContentType]int64)
	}
	s.perTypeMisses[contentType]++
}

func (s *Stats) recordEviction() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictions++
}

func (s *Stats) recordPrefetchHit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefetchHits++
}

func (s *Stats) recordPrefetchMiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefetchMisses++
}

// Snapshot returns the current counters as a models.CacheStats value.
func (c *Cache) Snapshot() models.CacheStats {
	c.stats.mu.Lock()
	defer c.stats.mu.Unlock()

	perTypeHits := make(map[models.ContentType]int64, len(c.stats.perTypeHits))
	for k, v := range c.stats.perTypeHits {
		perTypeHits[k] = v
	}
	perTypeMisses := make(map[models.ContentType]int64, len(c.stats.perTypeMisses))
	for k, v := range c.stats.perTypeMisses {
		perTypeMisses[k] = v
	}

	return models.CacheStats{
		Hits:           c.stats.hits,
		Misses:         c.stats.misses,
		Evictions:      c.stats.evictions,
		PrefetchHits:   c.stats.prefetchHits,
		PrefetchMisses: c.stats.prefetchMisses,
		PerTypeHits:    perTypeHits,
		PerTypeMisses:  perTypeMisses,
	}
}

// ResetStats zeroes every counter, mirroring the original's reset_stats.
func (c *Cache) ResetStats() {
	c.stats.mu.Lock()
	defer c.stats.mu.Unlock()
	c.stats.hits, c.stats.misses, c.stats.evictions = 0, 0, 0
	c.stats.prefetchHits, c.stats.prefetchMisses = 0, 0
	c.stats.perTypeHits = nil
	c.stats.perTypeMisses = nil
}
