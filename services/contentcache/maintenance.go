package contentcache

import (
	"context"
	"database/sql"
	"log"
	"time"
)

// AnalyzeTables runs ANALYZE to refresh the query planner's statistics.
// Cheap, safe to call after a large sync.
func (c *Cache) AnalyzeTables(ctx context.Context) error {
	start := time.Now()
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		_, err := sqlDB.ExecContext(ctx, "ANALYZE")
		return err
	})
	log.Printf("contentcache: ANALYZE completed in %s", time.Since(start))
	return err
}

// VacuumDatabase reclaims freed space and defragments the database file.
// Expensive: holds an exclusive lock on the connection for its duration,
// callers should run it outside of normal sync traffic.
func (c *Cache) VacuumDatabase(ctx context.Context) error {
	log.Printf("contentcache: starting VACUUM")
	start := time.Now()
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		_, err := sqlDB.ExecContext(ctx, "VACUUM")
		return err
	})
	log.Printf("contentcache: VACUUM completed in %s", time.Since(start))
	return err
}

// ExplainQuery returns the query planner's row-by-row plan detail for a
// parameterized query, for diagnosing slow queries.
func (c *Cache) ExplainQuery(ctx context.Context, query string, args ...any) ([]string, error) {
	var plan []string
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		rows, err := sqlDB.QueryContext(ctx, "EXPLAIN QUERY PLAN "+query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id, parent, notUsed int
			var detail string
			if err := rows.Scan(&id, &parent, &notUsed, &detail); err != nil {
				return err
			}
			plan = append(plan, detail)
		}
		return rows.Err()
	})
	return plan, err
}
