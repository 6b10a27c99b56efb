package remotecache

import (
	"context"
	"database/sql"
	"time"

	"xtreamsync/models"
)

// enforcePolicy evicts entries of contentType past the policy's max-entries
// ceiling: expired entries go first, then the oldest-accessed survivors,
// until the count is back at the ceiling. Mirrors the original's
// enforce_cache_policy, extended to prefer expired entries over
// least-recently-accessed ones rather than evicting strictly by creation
// order.
func (c *Cache) enforcePolicy(ctx context.Context, contentType models.ContentType) error {
	policy, ok := c.policies[contentType]
	if !ok || policy.MaxEntries <= 0 {
		return nil
	}

	return c.conn.WithConn(func(sqlDB *sql.DB) error {
		var count int
		if err := sqlDB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM remote_cache WHERE content_type = ?`, string(contentType),
		).Scan(&count); err != nil {
			return err
		}
		if count < policy.MaxEntries {
			return nil
		}
		toRemove := count - policy.MaxEntries + 1

		rows, err := sqlDB.QueryContext(ctx, `
			SELECT cache_key FROM remote_cache
			WHERE content_type = ?
			ORDER BY
				CASE WHEN expires_at <= ? THEN 0 ELSE 1 END,
				last_accessed ASC
			LIMIT ?`,
			string(contentType), time.Now().UTC().Format(time.RFC3339), toRemove)
		if err != nil {
			return err
		}
		var keys []string
		for rows.Next() {
			var k string
			if err := rows.Scan(&k); err != nil {
				rows.Close()
				return err
			}
			keys = append(keys, k)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		for _, k := range keys {
			c.memory.Remove(k)
			if _, err := sqlDB.ExecContext(ctx, `DELETE FROM remote_cache WHERE cache_key = ?`, k); err != nil {
				return err
			}
			c.stats.recordEviction()
		}
		return nil
	})
}
