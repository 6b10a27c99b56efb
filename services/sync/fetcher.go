// Package sync drives full and incremental catalog synchronization against
// a remote Xtream server: fetching categories/channels/movies/series,
// diffing against the cached content, and reporting progress.
package sync

import (
	"context"

	"xtreamsync/models"
)

// Fetcher is the remote Xtream API surface the sync engine depends on. This
// module ships no network implementation: cmd/xtreamsyncd wires an
// always-failing placeholder, WithRetry wraps any implementation in
// retry-go, and tests substitute a fake or a go.uber.org/mock double.
type Fetcher interface {
	FetchChannelCategories(ctx context.Context, creds models.Credentials) ([]models.Category, error)
	FetchChannels(ctx context.Context, creds models.Credentials) ([]models.Channel, error)
	FetchMovieCategories(ctx context.Context, creds models.Credentials) ([]models.Category, error)
	FetchMovies(ctx context.Context, creds models.Credentials) ([]models.Movie, error)
	FetchSeriesCategories(ctx context.Context, creds models.Credentials) ([]models.Category, error)
	FetchSeries(ctx context.Context, creds models.Credentials) ([]models.Series, error)
	FetchSeriesDetails(ctx context.Context, creds models.Credentials, seriesID int64) (models.SeriesDetails, error)
}
