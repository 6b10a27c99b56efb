package sync

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"xtreamsync/internal/apperr"
	"xtreamsync/internal/db"
	"xtreamsync/models"
)

// LastSyncTimestamps reports the last successful sync time per content
// type, used by the incremental-sync delta computation as the watermark.
type LastSyncTimestamps struct {
	Channels *time.Time
	Movies   *time.Time
	Series   *time.Time
}

// GetSyncStatus returns the current sync state for a profile. A profile
// that was never initialized reports the zero-value pending status, not
// an error.
func GetSyncStatus(ctx context.Context, conn *db.Conn, profileID string) (models.SyncProgress, error) {
	progress := models.SyncProgress{ProfileID: profileID, Status: models.SyncStatusPending}
	err := conn.WithConn(func(sqlDB *sql.DB) error {
		var status, message sql.NullString
		var prog, ch, mv, sr sql.NullInt64
		row := sqlDB.QueryRowContext(ctx, `
			SELECT sync_status, sync_progress, sync_message, channels_count, movies_count, series_count
			FROM xtream_content_sync WHERE profile_id = ?`, profileID)
		err := row.Scan(&status, &prog, &message, &ch, &mv, &sr)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		if status.Valid {
			progress.Status = models.SyncStatus(status.String)
		}
		progress.Progress = int(prog.Int64)
		progress.CurrentStep = message.String
		progress.ChannelsSynced = int(ch.Int64)
		progress.MoviesSynced = int(mv.Int64)
		progress.SeriesSynced = int(sr.Int64)
		return nil
	})
	return progress, err
}

// UpdateSyncStatus persists a SyncProgress snapshot, joining per-phase
// errors into the stored message with a "; " separator.
func UpdateSyncStatus(ctx context.Context, conn *db.Conn, progress models.SyncProgress) error {
	now := time.Now().UTC().Format(time.RFC3339)
	message := progress.CurrentStep
	if len(progress.Errors) > 0 {
		message = strings.Join(append([]string{message}, progress.Errors...), "; ")
	}
	return conn.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE xtream_content_sync
			SET sync_status = ?, sync_progress = ?, sync_message = ?,
			    channels_count = ?, movies_count = ?, series_count = ?, updated_at = ?
			WHERE profile_id = ?`,
			string(progress.Status), progress.Progress, message,
			progress.ChannelsSynced, progress.MoviesSynced, progress.SeriesSynced, now, progress.ProfileID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO xtream_content_sync (profile_id, sync_status, sync_progress, sync_message,
					channels_count, movies_count, series_count, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				progress.ProfileID, string(progress.Status), progress.Progress, message,
				progress.ChannelsSynced, progress.MoviesSynced, progress.SeriesSynced, now)
		}
		return err
	})
}

var validSyncContentTypes = map[string]string{
	"channels": "last_sync_channels",
	"movies":   "last_sync_movies",
	"series":   "last_sync_series",
}

// UpdateLastSyncTimestamp stamps the watermark column for one content
// type to now.
func UpdateLastSyncTimestamp(ctx context.Context, conn *db.Conn, profileID, contentType string) error {
	column, ok := validSyncContentTypes[contentType]
	if !ok {
		return apperr.Wrap(apperr.ErrValidation, "invalid content type %q for last-sync timestamp", contentType)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	return conn.WithConn(func(sqlDB *sql.DB) error {
		_, err := sqlDB.ExecContext(ctx, `UPDATE xtream_content_sync SET `+column+` = ?, updated_at = ? WHERE profile_id = ?`, now, now, profileID)
		return err
	})
}

// GetLastSyncTimestamps reads the three watermark columns. A profile
// without a sync_state row reports all-nil timestamps.
func GetLastSyncTimestamps(ctx context.Context, conn *db.Conn, profileID string) (LastSyncTimestamps, error) {
	var out LastSyncTimestamps
	err := conn.WithConn(func(sqlDB *sql.DB) error {
		var ch, mv, sr sql.NullString
		row := sqlDB.QueryRowContext(ctx, `
			SELECT last_sync_channels, last_sync_movies, last_sync_series
			FROM xtream_content_sync WHERE profile_id = ?`, profileID)
		err := row.Scan(&ch, &mv, &sr)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		out.Channels = parseTimestampPtr(ch)
		out.Movies = parseTimestampPtr(mv)
		out.Series = parseTimestampPtr(sr)
		return nil
	})
	return out, err
}

func parseTimestampPtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// GetSyncSettings reads per-profile auto-sync policy, defaulting to
// DefaultSyncSettings if the row is absent.
func GetSyncSettings(ctx context.Context, conn *db.Conn, profileID string) (models.SyncSettings, error) {
	settings := models.DefaultSyncSettings(profileID)
	err := conn.WithConn(func(sqlDB *sql.DB) error {
		var autoSync, wifiOnly, notify int
		row := sqlDB.QueryRowContext(ctx, `
			SELECT auto_sync_enabled, sync_interval_hours, wifi_only, notify_on_complete
			FROM xtream_sync_settings WHERE profile_id = ?`, profileID)
		err := row.Scan(&autoSync, &settings.SyncIntervalHours, &wifiOnly, &notify)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		settings.AutoSyncEnabled = autoSync != 0
		settings.WifiOnly = wifiOnly != 0
		settings.NotifyOnComplete = notify != 0
		return nil
	})
	return settings, err
}

const minSyncIntervalHours = 6

// UpdateSyncSettings validates and persists per-profile auto-sync policy.
// sync_interval_hours below 6 is rejected: it is the floor the background
// scheduler's tick cadence assumes.
func UpdateSyncSettings(ctx context.Context, conn *db.Conn, profileID string, settings models.SyncSettings) error {
	if settings.SyncIntervalHours < minSyncIntervalHours {
		return apperr.Wrap(apperr.ErrValidation, "sync_interval_hours must be at least %d hours", minSyncIntervalHours)
	}
	return conn.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE xtream_sync_settings
			SET auto_sync_enabled = ?, sync_interval_hours = ?, wifi_only = ?, notify_on_complete = ?
			WHERE profile_id = ?`,
			boolToInt(settings.AutoSyncEnabled), settings.SyncIntervalHours,
			boolToInt(settings.WifiOnly), boolToInt(settings.NotifyOnComplete), profileID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO xtream_sync_settings (profile_id, auto_sync_enabled, sync_interval_hours, wifi_only, notify_on_complete)
				VALUES (?, ?, ?, ?, ?)`,
				profileID, boolToInt(settings.AutoSyncEnabled), settings.SyncIntervalHours,
				boolToInt(settings.WifiOnly), boolToInt(settings.NotifyOnComplete))
		}
		return err
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
