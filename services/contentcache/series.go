package contentcache

import (
	"context"
	"database/sql"
	"time"

	"xtreamsync/internal/apperr"
	"xtreamsync/models"
)

const seriesColumns = `profile_id, series_id, name, title, year, cover, plot, cast, director, genre, release_date, last_modified, rating, rating_5based, episode_run_time, category_id`
const seasonColumns = `profile_id, series_id, season_number, name, episode_count, overview, air_date, cover, cover_big, vote_average`
const episodeColumns = `profile_id, series_id, episode_id, season_number, episode_num, title, container_extension, custom_sid, added, direct_source, info_json`

func (c *Cache) SaveSeries(ctx context.Context, profileID string, items []models.Series) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	now := time.Now().UTC().Format(time.RFC3339)

	saved, err := batchInsert(ctx, c.conn, "xtream_series", items, func(tx *sql.Tx, _ int, s models.Series) error {
		s.ProfileID = profileID
		if err := dropSeriesFTS(ctx, tx, s.ProfileID, s.SeriesID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO xtream_series (`+seriesColumns+`, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(profile_id, series_id) DO UPDATE SET
				name=excluded.name, title=excluded.title, year=excluded.year, cover=excluded.cover,
				plot=excluded.plot, cast=excluded.cast, director=excluded.director, genre=excluded.genre,
				release_date=excluded.release_date, last_modified=excluded.last_modified, rating=excluded.rating,
				rating_5based=excluded.rating_5based, episode_run_time=excluded.episode_run_time,
				category_id=excluded.category_id, updated_at=excluded.updated_at`,
			s.ProfileID, s.SeriesID, s.Name, s.Title, s.Year, s.Cover, s.Plot, s.Cast, s.Director, s.Genre,
			s.ReleaseDate, s.LastModified, s.Rating, s.Rating5Based, s.EpisodeRunTime, s.CategoryID, now, now)
		if err != nil {
			return err
		}
		return refreshSeriesFTS(ctx, tx, s.ProfileID, s.SeriesID)
	})
	if err != nil {
		return 0, err
	}

	err = c.conn.WithTx(ctx, func(tx *sql.Tx) error {
		count, err := countTable(ctx, tx, "xtream_series", profileID)
		if err != nil {
			return err
		}
		return markSyncState(ctx, tx, profileID, models.ContentSeries, count)
	})
	return saved, err
}

// dropSeriesFTS removes one series' FTS5 shadow row ahead of its upsert,
// while the row still holds the indexed values; see dropChannelFTS.
func dropSeriesFTS(ctx context.Context, tx *sql.Tx, profileID string, seriesID int64) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM xtream_series_fts WHERE rowid IN (
			SELECT rowid FROM xtream_series WHERE profile_id = ? AND series_id = ?)`, profileID, seriesID)
	return err
}

// refreshSeriesFTS indexes one series' current searchable fields in its FTS5
// shadow row, after the upsert and after dropSeriesFTS removed the old entry.
func refreshSeriesFTS(ctx context.Context, tx *sql.Tx, profileID string, seriesID int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO xtream_series_fts(rowid, name, title, plot, cast, director, genre)
		SELECT rowid, name, title, plot, cast, director, genre FROM xtream_series WHERE profile_id = ? AND series_id = ?`, profileID, seriesID)
	return err
}

func scanSeries(row interface{ Scan(...any) error }) (models.Series, error) {
	var s models.Series
	if err := row.Scan(&s.ProfileID, &s.SeriesID, &s.Name, &s.Title, &s.Year, &s.Cover, &s.Plot, &s.Cast,
		&s.Director, &s.Genre, &s.ReleaseDate, &s.LastModified, &s.Rating, &s.Rating5Based, &s.EpisodeRunTime, &s.CategoryID); err != nil {
		return models.Series{}, err
	}
	return s, nil
}

func (c *Cache) GetSeries(ctx context.Context, profileID string, filters []models.Filter, sortBy []models.SortColumn, page models.Pagination) ([]models.Series, error) {
	filters = append([]models.Filter{models.Equals("profile_id", profileID)}, filters...)
	if len(sortBy) == 0 {
		sortBy = []models.SortColumn{models.NewSort("name").CaseInsensitiveSort()}
	}
	query, args := composeSelect(`SELECT `+seriesColumns+` FROM xtream_series`, filters, sortBy, &page)

	var out []models.Series
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		rows, err := sqlDB.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			s, err := scanSeries(rows)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	return out, err
}

func (c *Cache) SearchSeries(ctx context.Context, profileID, query string, filters []models.Filter, sortBy []models.SortColumn, page models.Pagination) ([]models.Series, error) {
	pattern := "%" + sanitizeLikePattern(query) + "%"
	likeAny := `(name LIKE ? ESCAPE '\' OR title LIKE ? ESCAPE '\' OR plot LIKE ? ESCAPE '\' OR cast LIKE ? ESCAPE '\' OR director LIKE ? ESCAPE '\' OR genre LIKE ? ESCAPE '\')`

	args := make([]any, 0, 8)
	for i := 0; i < 6; i++ {
		args = append(args, pattern)
	}
	filters = append([]models.Filter{models.Equals("profile_id", profileID)}, filters...)
	sqlQuery := `SELECT ` + seriesColumns + ` FROM xtream_series WHERE ` + likeAny
	if whereFilters, filterArgs := buildWhereClause(filters); whereFilters != "" {
		sqlQuery += " AND " + whereFilters
		args = append(args, filterArgs...)
	}
	if len(sortBy) == 0 {
		sortBy = []models.SortColumn{prefixRank(query), models.NewSort("name").CaseInsensitiveSort()}
	}
	if orderBy, orderArgs := buildOrderBy(sortBy); orderBy != "" {
		sqlQuery += " ORDER BY " + orderBy
		args = append(args, orderArgs...)
	}
	sqlQuery += sqlLimitOffset(page)

	var out []models.Series
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		rows, err := sqlDB.QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			s, err := scanSeries(rows)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	return out, err
}

func (c *Cache) FTSSearchSeries(ctx context.Context, profileID, query string, limit int) ([]models.Series, error) {
	if query == "" {
		return c.GetSeries(ctx, profileID, nil, nil, models.Pagination{Page: 0, PageSize: limit})
	}
	var out []models.Series
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		rows, err := sqlDB.QueryContext(ctx, `
			SELECT `+prefixColumns("sr", seriesColumns)+`
			FROM xtream_series_fts f
			JOIN xtream_series sr ON sr.rowid = f.rowid
			WHERE f.xtream_series_fts MATCH ? AND sr.profile_id = ?
			ORDER BY rank LIMIT ?`, query, profileID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			s, err := scanSeries(rows)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	return out, err
}

func (c *Cache) CountSeries(ctx context.Context, profileID string, filters []models.Filter) (int, error) {
	filters = append([]models.Filter{models.Equals("profile_id", profileID)}, filters...)
	query, args := composeCount("xtream_series", filters)
	var n int
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		return sqlDB.QueryRowContext(ctx, query, args...).Scan(&n)
	})
	return n, err
}

// DeleteSeries cascades to seasons and episodes of the deleted series
// within this profile.
func (c *Cache) DeleteSeries(ctx context.Context, profileID string, ids []int64) (int, error) {
	if ids != nil && len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := c.conn.WithTx(ctx, func(tx *sql.Tx) error {
		var res sql.Result
		var err error
		if ids == nil {
			if _, err = tx.ExecContext(ctx, `DELETE FROM xtream_episodes WHERE profile_id = ?`, profileID); err != nil {
				return err
			}
			if _, err = tx.ExecContext(ctx, `DELETE FROM xtream_seasons WHERE profile_id = ?`, profileID); err != nil {
				return err
			}
			res, err = tx.ExecContext(ctx, `DELETE FROM xtream_series WHERE profile_id = ?`, profileID)
		} else {
			ph, args := inClause(ids, profileID)
			if _, err = tx.ExecContext(ctx, `DELETE FROM xtream_episodes WHERE profile_id = ? AND series_id IN (`+ph+`)`, args...); err != nil {
				return err
			}
			if _, err = tx.ExecContext(ctx, `DELETE FROM xtream_seasons WHERE profile_id = ? AND series_id IN (`+ph+`)`, args...); err != nil {
				return err
			}
			res, err = tx.ExecContext(ctx, `DELETE FROM xtream_series WHERE profile_id = ? AND series_id IN (`+ph+`)`, args...)
		}
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrDatabase, "delete series: %v", err)
	}
	return int(n), nil
}

// SaveSeriesDetails upserts a series together with its full season and
// episode index in one transaction.
func (c *Cache) SaveSeriesDetails(ctx context.Context, profileID string, details models.SeriesDetails) error {
	now := time.Now().UTC().Format(time.RFC3339)
	return c.conn.WithTx(ctx, func(tx *sql.Tx) error {
		s := details.Series
		s.ProfileID = profileID
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO xtream_series (`+seriesColumns+`, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(profile_id, series_id) DO UPDATE SET
				name=excluded.name, title=excluded.title, year=excluded.year, cover=excluded.cover,
				plot=excluded.plot, cast=excluded.cast, director=excluded.director, genre=excluded.genre,
				release_date=excluded.release_date, last_modified=excluded.last_modified, rating=excluded.rating,
				rating_5based=excluded.rating_5based, episode_run_time=excluded.episode_run_time,
				category_id=excluded.category_id, updated_at=excluded.updated_at`,
			s.ProfileID, s.SeriesID, s.Name, s.Title, s.Year, s.Cover, s.Plot, s.Cast, s.Director, s.Genre,
			s.ReleaseDate, s.LastModified, s.Rating, s.Rating5Based, s.EpisodeRunTime, s.CategoryID, now, now); err != nil {
			return err
		}

		for _, season := range details.Seasons {
			season.ProfileID = profileID
			season.SeriesID = s.SeriesID
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO xtream_seasons (`+seasonColumns+`, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(profile_id, series_id, season_number) DO UPDATE SET
					name=excluded.name, episode_count=excluded.episode_count, overview=excluded.overview,
					air_date=excluded.air_date, cover=excluded.cover, cover_big=excluded.cover_big,
					vote_average=excluded.vote_average, updated_at=excluded.updated_at`,
				season.ProfileID, season.SeriesID, season.SeasonNumber, season.Name, season.EpisodeCount,
				season.Overview, season.AirDate, season.Cover, season.CoverBig, season.VoteAverage, now, now); err != nil {
				return err
			}
		}

		for _, ep := range details.Episodes {
			ep.ProfileID = profileID
			ep.SeriesID = s.SeriesID
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO xtream_episodes (`+episodeColumns+`, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(profile_id, episode_id) DO UPDATE SET
					series_id=excluded.series_id, season_number=excluded.season_number, episode_num=excluded.episode_num,
					title=excluded.title, container_extension=excluded.container_extension, custom_sid=excluded.custom_sid,
					added=excluded.added, direct_source=excluded.direct_source, info_json=excluded.info_json, updated_at=excluded.updated_at`,
				ep.ProfileID, ep.SeriesID, ep.EpisodeID, ep.SeasonNumber, ep.EpisodeNum, ep.Title,
				ep.ContainerExtension, ep.CustomSID, ep.Added, ep.DirectSource, ep.InfoJSON, now, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetSeriesDetails assembles a series with its seasons and episodes from
// three reads inside one transaction. Fails with NotFound if no series row
// exists.
func (c *Cache) GetSeriesDetails(ctx context.Context, profileID string, seriesID int64) (models.SeriesDetails, error) {
	var details models.SeriesDetails
	err := c.conn.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM xtream_series WHERE profile_id = ? AND series_id = ?`, profileID, seriesID)
		s, err := scanSeries(row)
		if err == sql.ErrNoRows {
			return apperr.Wrap(apperr.ErrNotFound, "series %d not found for profile %s", seriesID, profileID)
		}
		if err != nil {
			return err
		}
		details.Series = s

		rows, err := tx.QueryContext(ctx, `SELECT `+seasonColumns+` FROM xtream_seasons WHERE profile_id = ? AND series_id = ? ORDER BY season_number ASC`, profileID, seriesID)
		if err != nil {
			return err
		}
		for rows.Next() {
			season, err := scanSeason(rows)
			if err != nil {
				rows.Close()
				return err
			}
			details.Seasons = append(details.Seasons, season)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		epRows, err := tx.QueryContext(ctx, `SELECT `+episodeColumns+` FROM xtream_episodes WHERE profile_id = ? AND series_id = ? ORDER BY season_number ASC, episode_num ASC`, profileID, seriesID)
		if err != nil {
			return err
		}
		defer epRows.Close()
		for epRows.Next() {
			ep, err := scanEpisode(epRows)
			if err != nil {
				return err
			}
			details.Episodes = append(details.Episodes, ep)
		}
		return epRows.Err()
	})
	return details, err
}

func scanSeason(row interface{ Scan(...any) error }) (models.Season, error) {
	var s models.Season
	if err := row.Scan(&s.ProfileID, &s.SeriesID, &s.SeasonNumber, &s.Name, &s.EpisodeCount, &s.Overview,
		&s.AirDate, &s.Cover, &s.CoverBig, &s.VoteAverage); err != nil {
		return models.Season{}, err
	}
	return s, nil
}

func scanEpisode(row interface{ Scan(...any) error }) (models.Episode, error) {
	var e models.Episode
	if err := row.Scan(&e.ProfileID, &e.SeriesID, &e.EpisodeID, &e.SeasonNumber, &e.EpisodeNum, &e.Title,
		&e.ContainerExtension, &e.CustomSID, &e.Added, &e.DirectSource, &e.InfoJSON); err != nil {
		return models.Episode{}, err
	}
	return e, nil
}

// GetSeasons returns every season of a series, ordered by season_number.
func (c *Cache) GetSeasons(ctx context.Context, profileID string, seriesID int64) ([]models.Season, error) {
	var out []models.Season
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		rows, err := sqlDB.QueryContext(ctx, `SELECT `+seasonColumns+` FROM xtream_seasons WHERE profile_id = ? AND series_id = ? ORDER BY season_number ASC`, profileID, seriesID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			s, err := scanSeason(rows)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	return out, err
}

// GetEpisodes returns a series' episodes, optionally restricted to one
// season.
func (c *Cache) GetEpisodes(ctx context.Context, profileID string, seriesID int64, season *int) ([]models.Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM xtream_episodes WHERE profile_id = ? AND series_id = ?`
	args := []any{profileID, seriesID}
	if season != nil {
		query += ` AND season_number = ?`
		args = append(args, *season)
	}
	query += ` ORDER BY season_number ASC, episode_num ASC`

	var out []models.Episode
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		rows, err := sqlDB.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			e, err := scanEpisode(rows)
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	return out, err
}
