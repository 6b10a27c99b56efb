package sync

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"

	"xtreamsync/internal/apperr"
	"xtreamsync/models"
)

// retryingFetcher wraps a Fetcher so every call retries transient network
// failures with bounded backoff, rather than surfacing a single dropped
// connection as a whole-phase sync failure.
type retryingFetcher struct {
	inner Fetcher
}

// WithRetry decorates a Fetcher with retry-go's backoff policy.
func WithRetry(f Fetcher) Fetcher {
	return &retryingFetcher{inner: f}
}

const (
	maxFetchAttempts = 4
	fetchRetryDelay  = 500 * time.Millisecond
)

func retryOpts(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(maxFetchAttempts),
		retry.Delay(fetchRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, apperr.ErrTransientNetwork)
		}),
		retry.LastErrorOnly(true),
	}
}

func (r *retryingFetcher) FetchChannelCategories(ctx context.Context, creds models.Credentials) ([]models.Category, error) {
	return retry.DoWithData(func() ([]models.Category, error) {
		return r.inner.FetchChannelCategories(ctx, creds)
	}, retryOpts(ctx)...)
}

func (r *retryingFetcher) FetchChannels(ctx context.Context, creds models.Credentials) ([]models.Channel, error) {
	return retry.DoWithData(func() ([]models.Channel, error) {
		return r.inner.FetchChannels(ctx, creds)
	}, retryOpts(ctx)...)
}

func (r *retryingFetcher) FetchMovieCategories(ctx context.Context, creds models.Credentials) ([]models.Category, error) {
	return retry.DoWithData(func() ([]models.Category, error) {
		return r.inner.FetchMovieCategories(ctx, creds)
	}, retryOpts(ctx)...)
}

func (r *retryingFetcher) FetchMovies(ctx context.Context, creds models.Credentials) ([]models.Movie, error) {
	return retry.DoWithData(func() ([]models.Movie, error) {
		return r.inner.FetchMovies(ctx, creds)
	}, retryOpts(ctx)...)
}

func (r *retryingFetcher) FetchSeriesCategories(ctx context.Context, creds models.Credentials) ([]models.Category, error) {
	return retry.DoWithData(func() ([]models.Category, error) {
		return r.inner.FetchSeriesCategories(ctx, creds)
	}, retryOpts(ctx)...)
}

func (r *retryingFetcher) FetchSeries(ctx context.Context, creds models.Credentials) ([]models.Series, error) {
	return retry.DoWithData(func() ([]models.Series, error) {
		return r.inner.FetchSeries(ctx, creds)
	}, retryOpts(ctx)...)
}

func (r *retryingFetcher) FetchSeriesDetails(ctx context.Context, creds models.Credentials, seriesID int64) (models.SeriesDetails, error) {
	return retry.DoWithData(func() (models.SeriesDetails, error) {
		return r.inner.FetchSeriesDetails(ctx, creds, seriesID)
	}, retryOpts(ctx)...)
}
