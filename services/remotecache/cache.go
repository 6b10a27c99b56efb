// Package remotecache is the tiered cache for remote Xtream API responses:
// an in-process LRU fronting the durable remote_cache SQLite table, keyed by
// "<profile_id>:<content_type>[:<selector>]". It is distinct from
// contentcache, which stores the normalized catalog; this package only ever
// holds opaque JSON blobs of raw server responses, so a sync can skip a
// network round trip entirely when a fresh entry exists.
package remotecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"xtreamsync/internal/apperr"
	"xtreamsync/internal/db"
	"xtreamsync/models"
)

const memoryTierCapacity = 2048

type entry struct {
	data         []byte
	expiresAt    time.Time
	contentType  models.ContentType
	accessCount  int64
	lastAccessed time.Time
}

// Cache is the two-tier remote-response cache: a bounded in-memory LRU
// backed by a durable SQLite table, so a cold start still has yesterday's
// responses available (possibly stale) until a sync refreshes them.
type Cache struct {
	conn     *db.Conn
	memory   *lru.Cache[string, entry]
	policies map[models.ContentType]models.CachePolicy

	stats    Stats
	prefetch *PrefetchQueue
}

// New constructs a remote-response cache using the default content-type
// policy table.
func New(conn *db.Conn) (*Cache, error) {
	return NewWithPolicies(conn, models.DefaultCachePolicies())
}

// NewWithPolicies constructs a remote-response cache with custom per-content-
// type TTL/eviction policies, for tests or deployments that want tighter
// ceilings than the defaults.
func NewWithPolicies(conn *db.Conn, policies map[models.ContentType]models.CachePolicy) (*Cache, error) {
	memory, err := lru.New[string, entry](memoryTierCapacity)
	if err != nil {
		return nil, fmt.Errorf("remotecache: create memory tier: %w", err)
	}
	return &Cache{
		conn:     conn,
		memory:   memory,
		policies: policies,
		prefetch: NewPrefetchQueue(),
	}, nil
}

// Get returns a cached response for key if present and unexpired, decoding
// it into dst (a pointer). It reports whether a usable entry was found.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, ok, err := c.getRaw(ctx, key, false)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, apperr.Wrap(apperr.ErrValidation, "decode cached entry %s: %v", key, err)
	}
	return true, nil
}

// GetStale is Get but also returns expired entries, for callers that would
// rather serve something over nothing when a refresh fails (e.g. a sync
// retry in progress).
func (c *Cache) GetStale(ctx context.Context, key string, dst any) (bool, error) {
	data, ok, err := c.getRaw(ctx, key, true)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, apperr.Wrap(apperr.ErrValidation, "decode cached entry %s: %v", key, err)
	}
	return true, nil
}

// getRaw is the byte-level core shared by Get/GetStale and by SyncAdapter:
// memory tier first, then the durable table on a miss, promoting a durable
// hit back into memory.
func (c *Cache) getRaw(ctx context.Context, key string, allowStale bool) ([]byte, bool, error) {
	contentType := contentTypeFromKey(key)
	now := time.Now()

	if e, ok := c.memory.Get(key); ok {
		if allowStale || e.expiresAt.After(now) {
			c.stats.recordHit(contentType)
			return e.data, true, nil
		}
		c.memory.Remove(key)
	}

	var (
		data      []byte
		expiresAt string
	)
	query := "SELECT data, expires_at FROM remote_cache WHERE cache_key = ?"
	if !allowStale {
		query += " AND expires_at > ?"
	}
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		args := []any{key}
		if !allowStale {
			args = append(args, now.UTC().Format(time.RFC3339))
		}
		row := sqlDB.QueryRowContext(ctx, query, args...)
		return row.Scan(&data, &expiresAt)
	})
	if err == sql.ErrNoRows {
		c.stats.recordMiss(contentType)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("remotecache: get %s: %w", key, err)
	}

	expiry, parseErr := time.Parse(time.RFC3339, expiresAt)
	if parseErr != nil {
		expiry = now
	}
	c.memory.Add(key, entry{data: data, expiresAt: expiry, contentType: contentType, lastAccessed: now})
	if err := c.touchAccess(ctx, key, now); err != nil {
		return nil, false, err
	}

	c.stats.recordHit(contentType)
	return data, true, nil
}

func (c *Cache) touchAccess(ctx context.Context, key string, now time.Time) error {
	return c.conn.WithConn(func(sqlDB *sql.DB) error {
		_, err := sqlDB.ExecContext(ctx,
			`UPDATE remote_cache SET access_count = access_count + 1, last_accessed = ? WHERE cache_key = ?`,
			now.UTC().Format(time.RFC3339), key)
		return err
	})
}

// Set stores value under key with the content-type's default TTL (or ttl if
// non-zero), evicting older entries of the same content type if the policy's
// max-entries ceiling would otherwise be exceeded. The owning profile is
// read from key's "<profile_id>:..." prefix rather than taken as a separate
// parameter, so a caller can never pass a key/profile pair that disagree.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperr.Wrap(apperr.ErrValidation, "encode cache entry %s: %v", key, err)
	}
	return c.setRaw(ctx, key, data, ttl)
}

func (c *Cache) setRaw(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	contentType := contentTypeFromKey(key)
	profileID := profileIDFromKey(key)
	if ttl == 0 {
		if policy, ok := c.policies[contentType]; ok {
			ttl = policy.TTL
		}
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	if err := c.enforcePolicy(ctx, contentType); err != nil {
		return err
	}

	c.memory.Add(key, entry{data: data, expiresAt: expiresAt, contentType: contentType, lastAccessed: now})

	return c.conn.WithConn(func(sqlDB *sql.DB) error {
		_, err := sqlDB.ExecContext(ctx, `
			INSERT INTO remote_cache (cache_key, profile_id, content_type, data, expires_at, created_at, access_count, last_accessed)
			VALUES (?, ?, ?, ?, ?, ?, 0, ?)
			ON CONFLICT(cache_key) DO UPDATE SET
				data = excluded.data,
				expires_at = excluded.expires_at,
				last_accessed = excluded.last_accessed`,
			key, profileID, string(contentType), data,
			expiresAt.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339))
		return err
	})
}

// Invalidate removes every entry whose key contains substr from both tiers.
func (c *Cache) Invalidate(ctx context.Context, substr string) error {
	for _, k := range c.memory.Keys() {
		if strings.Contains(k, substr) {
			c.memory.Remove(k)
		}
	}
	return c.conn.WithConn(func(sqlDB *sql.DB) error {
		_, err := sqlDB.ExecContext(ctx, `DELETE FROM remote_cache WHERE cache_key LIKE ?`, "%"+substr+"%")
		return err
	})
}

// ClearProfile removes every cache entry belonging to profileID.
func (c *Cache) ClearProfile(ctx context.Context, profileID string) error {
	prefix := profileID + ":"
	for _, k := range c.memory.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.memory.Remove(k)
		}
	}
	return c.conn.WithConn(func(sqlDB *sql.DB) error {
		_, err := sqlDB.ExecContext(ctx, `DELETE FROM remote_cache WHERE profile_id = ?`, profileID)
		return err
	})
}

// CleanupExpired removes every entry (either tier) past its expiry.
func (c *Cache) CleanupExpired(ctx context.Context) error {
	now := time.Now()
	for _, k := range c.memory.Keys() {
		if e, ok := c.memory.Peek(k); ok && !e.expiresAt.After(now) {
			c.memory.Remove(k)
		}
	}
	return c.conn.WithConn(func(sqlDB *sql.DB) error {
		_, err := sqlDB.ExecContext(ctx, `DELETE FROM remote_cache WHERE expires_at <= ?`, now.UTC().Format(time.RFC3339))
		return err
	})
}

// CacheKey builds the "<profile_id>:<content_type>[:<selector>]" key format
// the rest of this package and services/sync's ResponseCache usage rely on.
func CacheKey(profileID string, contentType models.ContentType, selector string) string {
	if selector == "" {
		return fmt.Sprintf("%s:%s", profileID, contentType)
	}
	return fmt.Sprintf("%s:%s:%s", profileID, contentType, selector)
}

func contentTypeFromKey(key string) models.ContentType {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 {
		return models.ContentType("unknown")
	}
	return models.ContentType(parts[1])
}

func profileIDFromKey(key string) string {
	parts := strings.SplitN(key, ":", 2)
	return parts[0]
}
