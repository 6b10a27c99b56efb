package sync

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/sourcegraph/conc/pool"

	"xtreamsync/internal/apperr"
	"xtreamsync/models"
)

// FullSync replaces a profile's entire catalog with a fresh snapshot from
// the remote server, in the fixed six-phase order: channel categories,
// channels, movie categories, movies, series categories, series. Progress
// is reported after every phase on h's channel and persisted to the
// sync_state row. Cancellation is checked between phases.
func (s *Scheduler) FullSync(ctx context.Context, h *Handle) error {
	profileID := h.ProfileID
	if err := s.registry.Register(h); err != nil {
		return err
	}
	defer s.registry.Unregister(profileID)

	creds, err := s.credentials(ctx, profileID)
	if err != nil {
		return s.fail(ctx, h, 0, "fetch credentials", err)
	}

	progress := models.SyncProgress{ProfileID: profileID, Status: models.SyncStatusSyncing}
	policies := models.DefaultCachePolicies()

	phases := []struct {
		step int
		name string
		run  func() error
	}{
		{0, "Syncing channel categories", func() error {
			cats, err := cachedFetch(ctx, s.remote, cacheKey(profileID, models.ContentChannels, "categories"), policies[models.ContentCategory].TTL, func() ([]models.Category, error) {
				return s.fetcher.FetchChannelCategories(ctx, creds)
			})
			if err != nil {
				return err
			}
			_, err = s.cache.SaveCategories(ctx, profileID, models.ContentChannels, cats)
			return err
		}},
		{1, "Syncing channels", func() error {
			items, err := cachedFetch(ctx, s.remote, cacheKey(profileID, models.ContentChannels, "items"), policies[models.ContentChannels].TTL, func() ([]models.Channel, error) {
				return s.fetcher.FetchChannels(ctx, creds)
			})
			if err != nil {
				return err
			}
			n, err := s.cache.SaveChannels(ctx, profileID, items)
			progress.ChannelsSynced = n
			return err
		}},
		{2, "Syncing movie categories", func() error {
			cats, err := cachedFetch(ctx, s.remote, cacheKey(profileID, models.ContentMovies, "categories"), policies[models.ContentCategory].TTL, func() ([]models.Category, error) {
				return s.fetcher.FetchMovieCategories(ctx, creds)
			})
			if err != nil {
				return err
			}
			_, err = s.cache.SaveCategories(ctx, profileID, models.ContentMovies, cats)
			return err
		}},
		{3, "Syncing movies", func() error {
			items, err := cachedFetch(ctx, s.remote, cacheKey(profileID, models.ContentMovies, "items"), policies[models.ContentMovies].TTL, func() ([]models.Movie, error) {
				return s.fetcher.FetchMovies(ctx, creds)
			})
			if err != nil {
				return err
			}
			n, err := s.cache.SaveMovies(ctx, profileID, items)
			progress.MoviesSynced = n
			return err
		}},
		{4, "Syncing series categories", func() error {
			cats, err := cachedFetch(ctx, s.remote, cacheKey(profileID, models.ContentSeries, "categories"), policies[models.ContentCategory].TTL, func() ([]models.Category, error) {
				return s.fetcher.FetchSeriesCategories(ctx, creds)
			})
			if err != nil {
				return err
			}
			_, err = s.cache.SaveCategories(ctx, profileID, models.ContentSeries, cats)
			return err
		}},
		{5, "Syncing series", func() error {
			items, err := cachedFetch(ctx, s.remote, cacheKey(profileID, models.ContentSeries, "items"), policies[models.ContentSeries].TTL, func() ([]models.Series, error) {
				return s.fetcher.FetchSeries(ctx, creds)
			})
			if err != nil {
				return err
			}
			n, err := s.cache.SaveSeries(ctx, profileID, items)
			progress.SeriesSynced = n
			return err
		}},
	}

	// Each phase is independent: channel/movie/series data sets don't
	// depend on one another, so one phase failing (a bad response, a
	// constraint violation on one content type) shouldn't abandon the
	// phases that would otherwise succeed. checkCancelled is the one
	// abort condition that stops the whole sync outright, since it means
	// the caller no longer wants any further work done.
	var phaseErrors []string
	for _, phase := range phases {
		if err := checkCancelled(ctx); err != nil {
			return s.fail(ctx, h, calculateProgress(phase.step, models.TotalSyncSteps, 0), progress.CurrentStep, err)
		}
		progress.CurrentStep = phase.name
		if err := phase.run(); err != nil {
			log.Printf("sync: phase %q failed for profile %s: %v", phase.name, profileID, err)
			phaseErrors = append(phaseErrors, fmt.Sprintf("%s: %v", phase.name, err))
			continue
		}
		progress.Progress = calculateProgress(phase.step+1, models.TotalSyncSteps, 0)
		s.emit(ctx, h, progress)
	}

	if err := s.finalize(ctx, profileID); err != nil {
		log.Printf("sync: finalize failed for profile %s: %v", profileID, err)
	}

	if err := UpdateLastSyncTimestamp(ctx, s.conn, profileID, "channels"); err != nil {
		log.Printf("sync: update channels watermark failed for %s: %v", profileID, err)
	}
	if err := UpdateLastSyncTimestamp(ctx, s.conn, profileID, "movies"); err != nil {
		log.Printf("sync: update movies watermark failed for %s: %v", profileID, err)
	}
	if err := UpdateLastSyncTimestamp(ctx, s.conn, profileID, "series"); err != nil {
		log.Printf("sync: update series watermark failed for %s: %v", profileID, err)
	}

	progress.Progress = 100
	if len(phaseErrors) > 0 {
		progress.Status = models.SyncStatusPartial
		progress.CurrentStep = "Sync completed with errors"
		progress.Errors = phaseErrors
	} else {
		progress.Status = models.SyncStatusCompleted
		progress.CurrentStep = "Sync complete"
	}
	return s.complete(ctx, h, progress)
}

// finalize fans in the post-sync housekeeping that doesn't depend on
// phase order: FTS reindex and planner statistics refresh run
// concurrently, their errors joined into one.
func (s *Scheduler) finalize(ctx context.Context, profileID string) error {
	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		return s.cache.RebuildFTSIndex(ctx, profileID)
	})
	p.Go(func(ctx context.Context) error {
		return s.cache.AnalyzeTables(ctx)
	})
	return p.Wait()
}

func (s *Scheduler) emit(ctx context.Context, h *Handle, progress models.SyncProgress) {
	select {
	case h.progress <- progress:
	default:
	}
	if err := UpdateSyncStatus(ctx, s.conn, progress); err != nil {
		log.Printf("sync: persist progress failed for %s: %v", progress.ProfileID, err)
	}
}

func (s *Scheduler) complete(ctx context.Context, h *Handle, progress models.SyncProgress) error {
	s.emit(ctx, h, progress)
	close(h.progress)
	return nil
}

func (s *Scheduler) fail(ctx context.Context, h *Handle, pct int, step string, cause error) error {
	progress := models.SyncProgress{
		ProfileID:   h.ProfileID,
		Status:      models.SyncStatusFailed,
		Progress:    pct,
		CurrentStep: step,
		Errors:      []string{cause.Error()},
	}
	s.emit(ctx, h, progress)
	close(h.progress)
	if errors.Is(cause, apperr.ErrCancelled) {
		return cause
	}
	return apperr.Wrap(apperr.ErrDatabase, "sync failed for profile %s at %q: %v", h.ProfileID, step, cause)
}
