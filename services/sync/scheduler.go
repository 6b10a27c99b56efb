package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sourcegraph/conc/pool"

	"xtreamsync/internal/apperr"
	"xtreamsync/internal/db"
	"xtreamsync/models"
	"xtreamsync/services/contentcache"
	"xtreamsync/services/vault"
)

// ResponseCache is the tiered remote-response cache's read/write surface,
// as consumed by the sync engine's cache-then-fetch phase fetches. Nil is
// a valid Scheduler configuration: every fetch goes straight to Fetcher.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Scheduler drives full and incremental synchronization, owns the
// active-sync registry, and persists sync status/settings.
type Scheduler struct {
	conn     *db.Conn
	cache    *contentcache.Cache
	vault    *vault.Vault
	credRepo vault.ProfileCredentialRepo
	fetcher  Fetcher
	remote   ResponseCache
	registry *Registry
}

// New constructs a Scheduler. fetcher should already be wrapped with
// WithRetry by the caller; remote may be nil to skip response caching.
func New(conn *db.Conn, cache *contentcache.Cache, v *vault.Vault, credRepo vault.ProfileCredentialRepo, fetcher Fetcher, remote ResponseCache) *Scheduler {
	return &Scheduler{
		conn:     conn,
		cache:    cache,
		vault:    v,
		credRepo: credRepo,
		fetcher:  fetcher,
		remote:   remote,
		registry: NewRegistry(),
	}
}

// IsSyncActive reports whether a sync is currently registered for the
// profile.
func (s *Scheduler) IsSyncActive(profileID string) bool {
	return s.registry.IsActive(profileID)
}

// ActiveSyncCount returns the number of profiles with an in-flight sync.
func (s *Scheduler) ActiveSyncCount() int {
	return s.registry.ActiveCount()
}

// CancelSync triggers cooperative cancellation of a profile's active sync.
func (s *Scheduler) CancelSync(profileID string) error {
	return s.registry.Cancel(profileID)
}

// ShouldSync reports whether a profile is due for an automatic sync: it
// has auto-sync enabled and the time since its latest per-type watermark
// meets or exceeds its configured interval. A profile with no prior sync
// is always due.
func (s *Scheduler) ShouldSync(ctx context.Context, profileID string) (bool, error) {
	settings, err := GetSyncSettings(ctx, s.conn, profileID)
	if err != nil {
		return false, err
	}
	if !settings.AutoSyncEnabled {
		return false, nil
	}
	ts, err := GetLastSyncTimestamps(ctx, s.conn, profileID)
	if err != nil {
		return false, err
	}
	last := latestOf(ts.Channels, ts.Movies, ts.Series)
	if last == nil {
		return true, nil
	}
	interval := time.Duration(settings.SyncIntervalHours) * time.Hour
	return time.Since(*last) >= interval, nil
}

// SyncSettings returns a profile's auto-sync configuration, for callers
// (like the background scheduler) that need to inspect WifiOnly or
// SyncIntervalHours without duplicating the query.
func (s *Scheduler) SyncSettings(ctx context.Context, profileID string) (models.SyncSettings, error) {
	return GetSyncSettings(ctx, s.conn, profileID)
}

func latestOf(times ...*time.Time) *time.Time {
	var latest *time.Time
	for _, t := range times {
		if t == nil {
			continue
		}
		if latest == nil || t.After(*latest) {
			latest = t
		}
	}
	return latest
}

func (s *Scheduler) credentials(ctx context.Context, profileID string) (models.Credentials, error) {
	return s.vault.RetrieveFromDB(ctx, s.credRepo, profileID)
}

func cachedFetch[T any](ctx context.Context, rc ResponseCache, key string, ttl time.Duration, fetch func() ([]T, error)) ([]T, error) {
	if rc != nil {
		if raw, ok := rc.Get(ctx, key); ok {
			var out []T
			if err := json.Unmarshal(raw, &out); err == nil {
				return out, nil
			}
		}
	}
	items, err := fetch()
	if err != nil {
		return nil, err
	}
	if rc != nil {
		if raw, err := json.Marshal(items); err == nil {
			rc.Set(ctx, key, raw, ttl)
		}
	}
	return items, nil
}

func cacheKey(profileID string, contentType models.ContentType, suffix string) string {
	return profileID + ":" + string(contentType) + ":" + suffix
}

func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return apperr.Wrap(apperr.ErrCancelled, "sync cancelled")
	default:
		return nil
	}
}
