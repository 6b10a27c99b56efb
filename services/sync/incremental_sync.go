package sync

import (
	"context"
	"log"
	"time"

	"github.com/sourcegraph/conc/pool"

	"xtreamsync/models"
)

type deltaResult struct {
	contentType    string
	newCount       int
	updatedCount   int
	removedCount   int
	totalAfterSync int
}

// IncrementalSync fetches only what changed since each content type's
// watermark: new items are inserted, items whose server timestamp moved
// past the watermark are re-saved, and cached items absent from the
// server's current listing are deleted. If a profile has never
// completed a sync (no watermark for any type), this delegates to
// FullSync instead of treating "no watermark" as "nothing changed".
func (s *Scheduler) IncrementalSync(ctx context.Context, h *Handle) error {
	profileID := h.ProfileID

	timestamps, err := GetLastSyncTimestamps(ctx, s.conn, profileID)
	if err != nil {
		return err
	}
	if latestOf(timestamps.Channels, timestamps.Movies, timestamps.Series) == nil {
		return s.FullSync(ctx, h)
	}

	if err := s.registry.Register(h); err != nil {
		return err
	}
	defer s.registry.Unregister(profileID)

	creds, err := s.credentials(ctx, profileID)
	if err != nil {
		return s.fail(ctx, h, 0, "fetch credentials", err)
	}

	progress := models.SyncProgress{ProfileID: profileID, Status: models.SyncStatusSyncing, CurrentStep: "Computing incremental delta"}
	s.emit(ctx, h, progress)

	results := make([]deltaResult, 3)
	p := pool.New().WithErrors().WithContext(ctx)

	p.Go(func(ctx context.Context) error {
		r, err := s.incrementalChannels(ctx, profileID, creds, timestamps.Channels)
		if err != nil {
			return err
		}
		results[0] = r
		return nil
	})
	p.Go(func(ctx context.Context) error {
		r, err := s.incrementalMovies(ctx, profileID, creds, timestamps.Movies)
		if err != nil {
			return err
		}
		results[1] = r
		return nil
	})
	p.Go(func(ctx context.Context) error {
		r, err := s.incrementalSeries(ctx, profileID, creds, timestamps.Series)
		if err != nil {
			return err
		}
		results[2] = r
		return nil
	})

	if err := p.Wait(); err != nil {
		return s.fail(ctx, h, 50, "incremental delta", err)
	}

	progress.ChannelsSynced = results[0].totalAfterSync
	progress.MoviesSynced = results[1].totalAfterSync
	progress.SeriesSynced = results[2].totalAfterSync
	progress.Status = models.SyncStatusCompleted
	progress.Progress = 100
	progress.CurrentStep = "Incremental sync complete"

	for _, contentType := range []string{"channels", "movies", "series"} {
		if err := UpdateLastSyncTimestamp(ctx, s.conn, profileID, contentType); err != nil {
			log.Printf("sync: update %s watermark failed for %s: %v", contentType, profileID, err)
		}
	}

	return s.complete(ctx, h, progress)
}

func (s *Scheduler) incrementalChannels(ctx context.Context, profileID string, creds models.Credentials, watermark *time.Time) (deltaResult, error) {
	cachedIDs, err := s.cache.GetContentIDs(ctx, profileID, models.ContentChannels)
	if err != nil {
		return deltaResult{}, err
	}
	server, err := s.fetcher.FetchChannels(ctx, creds)
	if err != nil {
		return deltaResult{}, err
	}
	newItems, updatedItems, serverIDs := diff(server, cachedIDs, watermark,
		func(c models.Channel) int64 { return c.StreamID },
		func(c models.Channel) string { return c.Added })
	toSave := append(append([]models.Channel{}, newItems...), updatedItems...)
	if len(toSave) > 0 {
		if _, err := s.cache.SaveChannels(ctx, profileID, toSave); err != nil {
			return deltaResult{}, err
		}
	}
	removedIDs := removed(cachedIDs, serverIDs)
	if _, err := s.cache.DeleteContentByIDs(ctx, profileID, models.ContentChannels, removedIDs); err != nil {
		return deltaResult{}, err
	}
	return deltaResult{contentType: "channels", newCount: len(newItems), updatedCount: len(updatedItems), removedCount: len(removedIDs), totalAfterSync: len(serverIDs)}, nil
}

func (s *Scheduler) incrementalMovies(ctx context.Context, profileID string, creds models.Credentials, watermark *time.Time) (deltaResult, error) {
	cachedIDs, err := s.cache.GetContentIDs(ctx, profileID, models.ContentMovies)
	if err != nil {
		return deltaResult{}, err
	}
	server, err := s.fetcher.FetchMovies(ctx, creds)
	if err != nil {
		return deltaResult{}, err
	}
	newItems, updatedItems, serverIDs := diff(server, cachedIDs, watermark,
		func(m models.Movie) int64 { return m.StreamID },
		func(m models.Movie) string { return m.Added })
	toSave := append(append([]models.Movie{}, newItems...), updatedItems...)
	if len(toSave) > 0 {
		if _, err := s.cache.SaveMovies(ctx, profileID, toSave); err != nil {
			return deltaResult{}, err
		}
	}
	removedIDs := removed(cachedIDs, serverIDs)
	if _, err := s.cache.DeleteContentByIDs(ctx, profileID, models.ContentMovies, removedIDs); err != nil {
		return deltaResult{}, err
	}
	return deltaResult{contentType: "movies", newCount: len(newItems), updatedCount: len(updatedItems), removedCount: len(removedIDs), totalAfterSync: len(serverIDs)}, nil
}

func (s *Scheduler) incrementalSeries(ctx context.Context, profileID string, creds models.Credentials, watermark *time.Time) (deltaResult, error) {
	cachedIDs, err := s.cache.GetContentIDs(ctx, profileID, models.ContentSeries)
	if err != nil {
		return deltaResult{}, err
	}
	server, err := s.fetcher.FetchSeries(ctx, creds)
	if err != nil {
		return deltaResult{}, err
	}
	newItems, updatedItems, serverIDs := diff(server, cachedIDs, watermark,
		func(sr models.Series) int64 { return sr.SeriesID },
		func(sr models.Series) string { return sr.LastModified })
	toSave := append(append([]models.Series{}, newItems...), updatedItems...)
	if len(toSave) > 0 {
		if _, err := s.cache.SaveSeries(ctx, profileID, toSave); err != nil {
			return deltaResult{}, err
		}
	}
	removedIDs := removed(cachedIDs, serverIDs)
	if _, err := s.cache.DeleteContentByIDs(ctx, profileID, models.ContentSeries, removedIDs); err != nil {
		return deltaResult{}, err
	}
	return deltaResult{contentType: "series", newCount: len(newItems), updatedCount: len(updatedItems), removedCount: len(removedIDs), totalAfterSync: len(serverIDs)}, nil
}
