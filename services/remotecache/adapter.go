package remotecache

import (
	"context"
	"log"
	"time"
)

// SyncAdapter adapts Cache to services/sync's ResponseCache interface, which
// is error-free by design: the sync engine treats a cache failure the same
// as a miss and falls through to a live fetch rather than failing the sync.
// A single SyncAdapter serves every profile a Scheduler syncs, since the
// owning profile is read off each key's own "<profile_id>:..." prefix.
type SyncAdapter struct {
	cache *Cache
}

// NewSyncAdapter wraps cache for use as a services/sync.ResponseCache.
func NewSyncAdapter(cache *Cache) *SyncAdapter {
	return &SyncAdapter{cache: cache}
}

// Get implements sync.ResponseCache.
func (a *SyncAdapter) Get(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := a.cache.getRaw(ctx, key, false)
	if err != nil {
		log.Printf("remotecache: get %s failed: %v", key, err)
		return nil, false
	}
	return data, ok
}

// Set implements sync.ResponseCache.
func (a *SyncAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := a.cache.setRaw(ctx, key, value, ttl); err != nil {
		log.Printf("remotecache: set %s failed: %v", key, err)
	}
}
