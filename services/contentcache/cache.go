// Package contentcache implements the per-profile normalized catalog store:
// channels, movies, series (with seasons/episodes), and categories, plus the
// query planner and transactional batch layer they share.
package contentcache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"xtreamsync/internal/apperr"
	"xtreamsync/internal/db"
	"xtreamsync/models"
)

// Cache is the content cache service. Every operation is scoped by
// profile_id; tests assert that profile A's operations never observe or
// mutate profile B's rows.
type Cache struct {
	conn *db.Conn
}

// New constructs a content cache over an already-migrated connection.
func New(conn *db.Conn) *Cache {
	return &Cache{conn: conn}
}

// categoryTable maps a catalog content type to its partitioned category
// table name. Categories are content-type-partitioned: a save to one type
// never affects another.
func categoryTable(t models.ContentType) (string, error) {
	switch t {
	case models.ContentChannels:
		return "xtream_channel_categories", nil
	case models.ContentMovies:
		return "xtream_movie_categories", nil
	case models.ContentSeries:
		return "xtream_series_categories", nil
	default:
		return "", fmt.Errorf("categories are not defined for content type %q", t)
	}
}

// contentTable maps a catalog content type to its base table, for the
// incremental-sync primitives that are generic over type.
func contentTable(t models.ContentType) (table, idColumn string, err error) {
	switch t {
	case models.ContentChannels:
		return "xtream_channels", "stream_id", nil
	case models.ContentMovies:
		return "xtream_movies", "stream_id", nil
	case models.ContentSeries:
		return "xtream_series", "series_id", nil
	default:
		return "", "", fmt.Errorf("unsupported content type %q", t)
	}
}

// InitializeProfile inserts the per-profile sync_state and sync_settings
// rows if they are absent. Idempotent.
func (c *Cache) InitializeProfile(ctx context.Context, profileID string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	return c.conn.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO xtream_content_sync (profile_id, sync_status, sync_progress, updated_at)
			VALUES (?, 'pending', 0, ?)`, profileID, now); err != nil {
			return err
		}
		settings := models.DefaultSyncSettings(profileID)
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO xtream_sync_settings (profile_id, auto_sync_enabled, sync_interval_hours, wifi_only, notify_on_complete)
			VALUES (?, ?, ?, ?, ?)`,
			profileID, boolToInt(settings.AutoSyncEnabled), settings.SyncIntervalHours,
			boolToInt(settings.WifiOnly), boolToInt(settings.NotifyOnComplete))
		return err
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// GetContentIDs returns the full set of identity values stored for a
// content type under a profile, used by the incremental-sync delta
// computation.
func (c *Cache) GetContentIDs(ctx context.Context, profileID string, contentType models.ContentType) (map[int64]struct{}, error) {
	table, idColumn, err := contentTable(contentType)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]struct{})
	err = c.conn.WithConn(func(sqlDB *sql.DB) error {
		rows, err := sqlDB.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE profile_id = ?`, idColumn, table), profileID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids[id] = struct{}{}
		}
		return rows.Err()
	})
	return ids, err
}

// DeleteContentByIDs removes rows of contentType whose identity is in ids.
// An empty id list deletes nothing.
func (c *Cache) DeleteContentByIDs(ctx context.Context, profileID string, contentType models.ContentType, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	table, idColumn, err := contentTable(contentType)
	if err != nil {
		return 0, err
	}
	var deleted int64
	err = c.conn.WithTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			res, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE profile_id = ? AND %s = ?`, table, idColumn), profileID, id)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			deleted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(deleted), nil
}

// RebuildFTSIndex repopulates every FTS shadow table from its base table
// for one profile.
func (c *Cache) RebuildFTSIndex(ctx context.Context, profileID string) error {
	return c.conn.WithTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM xtream_channels_fts WHERE rowid IN (SELECT rowid FROM xtream_channels WHERE profile_id = ?)`,
			`INSERT INTO xtream_channels_fts(rowid, name) SELECT rowid, name FROM xtream_channels WHERE profile_id = ?`,
			`DELETE FROM xtream_movies_fts WHERE rowid IN (SELECT rowid FROM xtream_movies WHERE profile_id = ?)`,
			`INSERT INTO xtream_movies_fts(rowid, name, title, plot, cast, director, genre) SELECT rowid, name, title, plot, cast, director, genre FROM xtream_movies WHERE profile_id = ?`,
			`DELETE FROM xtream_series_fts WHERE rowid IN (SELECT rowid FROM xtream_series WHERE profile_id = ?)`,
			`INSERT INTO xtream_series_fts(rowid, name, title, plot, cast, director, genre) SELECT rowid, name, title, plot, cast, director, genre FROM xtream_series WHERE profile_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, profileID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ClearProfileContent deletes every catalog row for a profile across all
// content tables, leaving other profiles untouched.
func (c *Cache) ClearProfileContent(ctx context.Context, profileID string) error {
	tables := []string{
		"xtream_channels", "xtream_movies", "xtream_series", "xtream_seasons", "xtream_episodes",
		"xtream_channel_categories", "xtream_movie_categories", "xtream_series_categories",
	}
	return c.conn.WithTx(ctx, func(tx *sql.Tx) error {
		for _, table := range tables {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE profile_id = ?`, table), profileID); err != nil {
				return err
			}
		}
		return nil
	})
}

func markSyncState(ctx context.Context, tx *sql.Tx, profileID string, contentType models.ContentType, count int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	switch contentType {
	case models.ContentChannels:
		_, err := tx.ExecContext(ctx, `
			UPDATE xtream_content_sync SET last_sync_channels = ?, channels_count = ?, updated_at = ? WHERE profile_id = ?`,
			now, count, now, profileID)
		return err
	case models.ContentMovies:
		_, err := tx.ExecContext(ctx, `
			UPDATE xtream_content_sync SET last_sync_movies = ?, movies_count = ?, updated_at = ? WHERE profile_id = ?`,
			now, count, now, profileID)
		return err
	case models.ContentSeries:
		_, err := tx.ExecContext(ctx, `
			UPDATE xtream_content_sync SET last_sync_series = ?, series_count = ?, updated_at = ? WHERE profile_id = ?`,
			now, count, now, profileID)
		return err
	default:
		return apperr.Wrap(apperr.ErrValidation, "unsupported content type %q for sync state", contentType)
	}
}

func countTable(ctx context.Context, tx *sql.Tx, table, profileID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE profile_id = ?`, table), profileID).Scan(&n)
	return n, err
}
