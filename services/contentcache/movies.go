package contentcache

import (
	"context"
	"database/sql"
	"time"

	"xtreamsync/internal/apperr"
	"xtreamsync/models"
)

const movieColumns = `profile_id, stream_id, name, title, year, rating, rating_5based, genre, episode_run_time, category_id, container_extension, release_date, cast, director, plot, youtube_trailer, added`

func (c *Cache) SaveMovies(ctx context.Context, profileID string, items []models.Movie) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	now := time.Now().UTC().Format(time.RFC3339)

	saved, err := batchInsert(ctx, c.conn, "xtream_movies", items, func(tx *sql.Tx, _ int, m models.Movie) error {
		m.ProfileID = profileID
		if err := dropMovieFTS(ctx, tx, m.ProfileID, m.StreamID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO xtream_movies (`+movieColumns+`, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(profile_id, stream_id) DO UPDATE SET
				name=excluded.name, title=excluded.title, year=excluded.year, rating=excluded.rating,
				rating_5based=excluded.rating_5based, genre=excluded.genre, episode_run_time=excluded.episode_run_time,
				category_id=excluded.category_id, container_extension=excluded.container_extension,
				release_date=excluded.release_date, cast=excluded.cast, director=excluded.director,
				plot=excluded.plot, youtube_trailer=excluded.youtube_trailer, added=excluded.added, updated_at=excluded.updated_at`,
			m.ProfileID, m.StreamID, m.Name, m.Title, m.Year, m.Rating, m.Rating5Based, m.Genre,
			m.EpisodeRunTime, m.CategoryID, m.ContainerExtension, m.ReleaseDate, m.Cast, m.Director,
			m.Plot, m.YoutubeTrailer, m.Added, now, now)
		if err != nil {
			return err
		}
		return refreshMovieFTS(ctx, tx, m.ProfileID, m.StreamID)
	})
	if err != nil {
		return 0, err
	}

	err = c.conn.WithTx(ctx, func(tx *sql.Tx) error {
		count, err := countTable(ctx, tx, "xtream_movies", profileID)
		if err != nil {
			return err
		}
		return markSyncState(ctx, tx, profileID, models.ContentMovies, count)
	})
	return saved, err
}

// dropMovieFTS removes one movie's FTS5 shadow row ahead of its upsert,
// while the row still holds the indexed values; see dropChannelFTS.
func dropMovieFTS(ctx context.Context, tx *sql.Tx, profileID string, streamID int64) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM xtream_movies_fts WHERE rowid IN (
			SELECT rowid FROM xtream_movies WHERE profile_id = ? AND stream_id = ?)`, profileID, streamID)
	return err
}

// refreshMovieFTS indexes one movie's current searchable fields in its FTS5
// shadow row, after the upsert and after dropMovieFTS removed the old entry.
func refreshMovieFTS(ctx context.Context, tx *sql.Tx, profileID string, streamID int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO xtream_movies_fts(rowid, name, title, plot, cast, director, genre)
		SELECT rowid, name, title, plot, cast, director, genre FROM xtream_movies WHERE profile_id = ? AND stream_id = ?`, profileID, streamID)
	return err
}

func scanMovie(row interface{ Scan(...any) error }) (models.Movie, error) {
	var m models.Movie
	if err := row.Scan(&m.ProfileID, &m.StreamID, &m.Name, &m.Title, &m.Year, &m.Rating, &m.Rating5Based,
		&m.Genre, &m.EpisodeRunTime, &m.CategoryID, &m.ContainerExtension, &m.ReleaseDate, &m.Cast,
		&m.Director, &m.Plot, &m.YoutubeTrailer, &m.Added); err != nil {
		return models.Movie{}, err
	}
	return m, nil
}

func (c *Cache) GetMovies(ctx context.Context, profileID string, filters []models.Filter, sortBy []models.SortColumn, page models.Pagination) ([]models.Movie, error) {
	filters = append([]models.Filter{models.Equals("profile_id", profileID)}, filters...)
	if len(sortBy) == 0 {
		sortBy = []models.SortColumn{models.NewSort("name").CaseInsensitiveSort()}
	}
	query, args := composeSelect(`SELECT `+movieColumns+` FROM xtream_movies`, filters, sortBy, &page)

	var out []models.Movie
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		rows, err := sqlDB.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			m, err := scanMovie(rows)
			if err != nil {
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	return out, err
}

// SearchMovies matches over name, title, plot, cast, director, genre.
func (c *Cache) SearchMovies(ctx context.Context, profileID, query string, filters []models.Filter, sortBy []models.SortColumn, page models.Pagination) ([]models.Movie, error) {
	pattern := "%" + sanitizeLikePattern(query) + "%"
	likeAny := `(name LIKE ? ESCAPE '\' OR title LIKE ? ESCAPE '\' OR plot LIKE ? ESCAPE '\' OR cast LIKE ? ESCAPE '\' OR director LIKE ? ESCAPE '\' OR genre LIKE ? ESCAPE '\')`

	args := make([]any, 0, 8)
	for i := 0; i < 6; i++ {
		args = append(args, pattern)
	}

	filters = append([]models.Filter{models.Equals("profile_id", profileID)}, filters...)
	sqlQuery := `SELECT ` + movieColumns + ` FROM xtream_movies WHERE ` + likeAny
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

	var out []models.Movie
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		rows, err := sqlDB.QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			m, err := scanMovie(rows)
			if err != nil {
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	return out, err
}

func (c *Cache) FTSSearchMovies(ctx context.Context, profileID, query string, limit int) ([]models.Movie, error) {
	if query == "" {
		return c.GetMovies(ctx, profileID, nil, nil, models.Pagination{Page: 0, PageSize: limit})
	}
	var out []models.Movie
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		rows, err := sqlDB.QueryContext(ctx, `
			SELECT `+prefixColumns("mv", movieColumns)+`
			FROM xtream_movies_fts f
			JOIN xtream_movies mv ON mv.rowid = f.rowid
			WHERE f.xtream_movies_fts MATCH ? AND mv.profile_id = ?
			ORDER BY rank LIMIT ?`, query, profileID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			m, err := scanMovie(rows)
			if err != nil {
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	return out, err
}

func (c *Cache) CountMovies(ctx context.Context, profileID string, filters []models.Filter) (int, error) {
	filters = append([]models.Filter{models.Equals("profile_id", profileID)}, filters...)
	query, args := composeCount("xtream_movies", filters)
	var n int
	err := c.conn.WithConn(func(sqlDB *sql.DB) error {
		return sqlDB.QueryRowContext(ctx, query, args...).Scan(&n)
	})
	return n, err
}

func (c *Cache) DeleteMovies(ctx context.Context, profileID string, ids []int64) (int, error) {
	if ids != nil && len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := c.conn.WithTx(ctx, func(tx *sql.Tx) error {
		var res sql.Result
		var err error
		if ids == nil {
			res, err = tx.ExecContext(ctx, `DELETE FROM xtream_movies WHERE profile_id = ?`, profileID)
		} else {
			ph, args := inClause(ids, profileID)
			res, err = tx.ExecContext(ctx, `DELETE FROM xtream_movies WHERE profile_id = ? AND stream_id IN (`+ph+`)`, args...)
		}
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrDatabase, "delete movies: %v", err)
	}
	return int(n), nil
}
