package contentcache

import (
	"context"
	"database/sql"
	"time"

	"xtreamsync/internal/apperr"
	"xtreamsync/models"
)

const channelColumns = `profile_id, stream_id, num, name, stream_type, stream_icon, epg_channel_id, added, category_id, custom_sid, tv_archive, direct_source, tv_archive_duration`

// SaveChannels upserts items on (profile, stream_id) and updates the FTS
// shadow in one transaction, then records the sync-state counter and
// last-sync timestamp for channels in a second transaction. The two are not
// atomic together: if the second fails, the upserted rows stay committed and
// the error is returned alongside the saved count. Empty input is a no-op
// returning 0.
func (c *Cache) SaveChannels(ctx context.Context, profileID string, items []models.Channel) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	now := time.Now().UTC().Format(time.RFC3339)

	saved, err := batchInsert(ctx, c.conn, "xtream_channels", items, func(tx *sql.Tx, _ int, ch models.Channel) error {
		ch.ProfileID = profileID
		if err := dropChannelFTS(ctx, tx, ch.ProfileID, ch.StreamID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO xtream_channels (`+channelColumns+`, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(profile_id, stream_id) DO UPDATE SET
				num=excluded.num, name=excluded.name, stream_type=excluded.stream_type,
				stream_icon=excluded.stream_icon, epg_channel_id=excluded.epg_channel_id,
				added=excluded.added, category_id=excluded.category_id, custom_sid=excluded.custom_sid,
				tv_archive=excluded.tv_archive, direct_source=excluded.direct_source,
				tv_archive_duration=excluded.tv_archive_duration, updated_at=excluded.updated_at`,
			ch.ProfileID, ch.StreamID, ch.Num, ch.Name, ch.StreamType, ch.StreamIcon, ch.EPGChannelID,
			ch.Added, ch.CategoryID, ch.CustomSID, boolToInt(ch.TVArchive), ch.DirectSource, ch.TVArchiveDuration,
			now, now)
		if err != nil {
			return err
		}
		if _, err := res.RowsAffected(); err != nil {
			return err
		}
		return refreshChannelFTS(ctx, tx, ch.ProfileID, ch.StreamID)
	})
	if err != nil {
		return 0, err
	}

	err = c.conn.WithTx(ctx, func(tx *sql.Tx) error {
		count, err := countTable(ctx, tx, "xtream_channels", profileID)
		if err != nil {
			return err
		}
		return markSyncState(ctx, tx, profileID, models.ContentChannels, count)
	})
	if err != nil {
		return saved, err
	}
	return saved, nil
}

// dropChannelFTS removes one channel's FTS5 shadow row ahead of its upsert.
// xtream_channels_fts is an external-content table with no triggers, so an
// UPDATE to the indexed row (e.g. a rename on a later sync) never reaches
// the shadow table on its own. A DELETE on it tokenizes whatever the content
// row holds at that moment, so it runs while the row still carries the
// values that were indexed. A channel not stored yet matches no rowid.
func dropChannelFTS(ctx context.Context, tx *sql.Tx, profileID string, streamID int64) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM xtream_channels_fts WHERE rowid IN (
			SELECT rowid FROM xtream_channels WHERE profile_id = ? AND stream_id = ?)`, profileID, streamID)
	return err
}

// refreshChannelFTS indexes one channel's current name in its FTS5 shadow
// row, after the upsert and after dropChannelFTS removed the old entry.
func refreshChannelFTS(ctx context.Context, tx *sql.Tx, profileID string, streamID int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO xtream_channels_fts(rowid, name)
		SELECT rowid, name FROM xtream_channels WHERE profile_id = ? AND stream_id = ?`, profileID, streamID)
	return err
}

func scanChannel(row interface{ Scan(...any) error }) (models.Channel, error) {
	var ch models.Channel
	var tvArchive int
	if err := row.Scan(&ch.ProfileID, &ch.StreamID, &ch.Num, &ch.Name, &ch.StreamType, &ch.StreamIcon,
		&ch.EPGChannelID, &ch.Added, &ch.CategoryID, &ch.CustomSID, &tvArchive, &ch.DirectSource, &ch.TVArchiveDuration); err != nil {
		return models.Channel{}, err
	}
	ch.TVArchive = tvArchive != 0
	return ch, nil
}

// GetChannels applies the filter algebra, defaulting sort to name NOCASE
// ascending, with pagination.
func (c *Cache) GetChannels(ctx context.Context, profileID string, filters []models.Filter, sortBy []models.SortColumn, page models.Pagination) ([]models.Channel, error) {
	filters = append([]models.Filter{models.Equals("profile_id", profileID)}, filters...)
	if len(sortBy) == 0 {
		sortBy = []models.SortColumn{models.NewSort("name").CaseInsensitiveSort()}
	}
	query, args := composeSelect(`SELECT `+channelColumns+` FROM xtream_channels`, filters, sortBy, &page)

	var out []models.Channel
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		rows, err := sqlDB.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			ch, err := scanChannel(rows)
			if err != nil {
				return err
			}
			out = append(out, ch)
		}
		return rows.Err()
	})
	return out, err
}

// SearchChannels is the LIKE-based case-insensitive search over name,
// ranking exact-prefix matches first when no explicit sort is requested.
func (c *Cache) SearchChannels(ctx context.Context, profileID, query string, filters []models.Filter, sortBy []models.SortColumn, page models.Pagination) ([]models.Channel, error) {
	filters = append(filters, models.Like("name", query))
	if len(sortBy) == 0 {
		sortBy = []models.SortColumn{prefixRank(query), models.NewSort("name").CaseInsensitiveSort()}
	}
	return c.GetChannels(ctx, profileID, filters, sortBy, page)
}

// FTSSearchChannels dispatches to the FTS shadow table, ordered by engine
// rank, joining back to the primary table for full rows. An empty query
// falls back to the non-FTS list path.
func (c *Cache) FTSSearchChannels(ctx context.Context, profileID, query string, limit int) ([]models.Channel, error) {
	if query == "" {
		return c.GetChannels(ctx, profileID, nil, nil, models.Pagination{Page: 0, PageSize: limit})
	}
	var out []models.Channel
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		rows, err := sqlDB.QueryContext(ctx, `
			SELECT `+prefixColumns("ch", channelColumns)+`
			FROM xtream_channels_fts f
			JOIN xtream_channels ch ON ch.rowid = f.rowid
			WHERE f.xtream_channels_fts MATCH ? AND ch.profile_id = ?
			ORDER BY rank LIMIT ?`, query, profileID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			ch, err := scanChannel(rows)
			if err != nil {
				return err
			}
			out = append(out, ch)
		}
		return rows.Err()
	})
	return out, err
}

// CountChannels counts rows matching the given filters.
func (c *Cache) CountChannels(ctx context.Context, profileID string, filters []models.Filter) (int, error) {
	filters = append([]models.Filter{models.Equals("profile_id", profileID)}, filters...)
	query, args := composeCount("xtream_channels", filters)
	var n int
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		return sqlDB.QueryRowContext(ctx, query, args...).Scan(&n)
	})
	return n, err
}

// DeleteChannels deletes by identity; nil deletes all, an empty slice
// deletes nothing.
func (c *Cache) DeleteChannels(ctx context.Context, profileID string, ids []int64) (int, error) {
	if ids != nil && len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := c.conn.WithTx(ctx, func(tx *sql.Tx) error {
		var res sql.Result
		var err error
		if ids == nil {
			res, err = tx.ExecContext(ctx, `DELETE FROM xtream_channels WHERE profile_id = ?`, profileID)
		} else {
			placeholders, args := inClause(ids, profileID)
			res, err = tx.ExecContext(ctx, `DELETE FROM xtream_channels WHERE profile_id = ? AND stream_id IN (`+placeholders+`)`, args...)
		}
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrDatabase, "delete channels: %v", err)
	}
	return int(n), nil
}
