package models

import "time"

// CachedResponse is a remote-response cache entry. Key format is
// "<profile_id>:<content_type>[:<selector>]".
type CachedResponse struct {
	Key          string      `json:"key"`
	ProfileID    string      `json:"profileId"`
	ContentType  ContentType `json:"contentType"`
	Data         []byte      `json:"-"`
	ExpiresAt    time.Time   `json:"expiresAt"`
	CreatedAt    time.Time   `json:"createdAt"`
	AccessCount  int64       `json:"accessCount"`
	LastAccessed time.Time   `json:"lastAccessed"`
}

// CachePriority orders prefetch work and informs eviction tie-breaking.
type CachePriority int

const (
	PriorityLow CachePriority = iota
	PriorityMedium
	PriorityHigh
)

// PrefetchItem is a queued cache-warming request.
type PrefetchItem struct {
	ProfileID   string        `json:"profileId"`
	ContentType ContentType   `json:"contentType"`
	Selector    string        `json:"selector,omitempty"`
	Priority    CachePriority `json:"priority"`
	ScheduledAt time.Time     `json:"scheduledAt"`
}

// CachePolicy describes the TTL and eviction ceiling for one content type.
type CachePolicy struct {
	TTL         time.Duration
	MaxEntries  int
	Priority    CachePriority
}

// DefaultCachePolicies is the content-type-specific TTL/limit table from
// the remote-response cache design.
func DefaultCachePolicies() map[ContentType]CachePolicy {
	return map[ContentType]CachePolicy{
		ContentChannels: {TTL: 3600 * time.Second, MaxEntries: 1000, Priority: PriorityHigh},
		ContentMovies:   {TTL: 7200 * time.Second, MaxEntries: 500, Priority: PriorityMedium},
		ContentSeries:   {TTL: 7200 * time.Second, MaxEntries: 500, Priority: PriorityMedium},
		ContentEPG:      {TTL: 1800 * time.Second, MaxEntries: 200, Priority: PriorityHigh},
		ContentCategory: {TTL: 14400 * time.Second, MaxEntries: 100, Priority: PriorityHigh},
	}
}

// CacheStats accumulates the remote-response cache's observability counters.
type CacheStats struct {
	Hits             int64
	Misses           int64
	StaleHits        int64
	Evictions        int64
	PrefetchHits     int64
	PrefetchMisses   int64
	PerTypeHits      map[ContentType]int64
	PerTypeMisses    map[ContentType]int64
	PerTypeEntries   map[ContentType]int64
	AvgAccessTimeMs  float64
}

// HitRatio returns hits / (hits + misses), or 0.0 when there have been no
// lookups at all.
func (s CacheStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total)
}
