package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"xtreamsync/models"
)

// TestIncrementalSyncWithNoWatermarkDelegatesToFullSync exercises the
// "never synced before" branch: IncrementalSync should run the six-phase
// full sync rather than treat an absent watermark as an empty delta.
func TestIncrementalSyncWithNoWatermarkDelegatesToFullSync(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := NewMockFetcher(ctrl)

	fetcher.EXPECT().FetchChannelCategories(gomock.Any(), gomock.Any()).Return(nil, nil)
	fetcher.EXPECT().FetchChannels(gomock.Any(), gomock.Any()).Return([]models.Channel{{StreamID: 1, Name: "C1"}}, nil)
	fetcher.EXPECT().FetchMovieCategories(gomock.Any(), gomock.Any()).Return(nil, nil)
	fetcher.EXPECT().FetchMovies(gomock.Any(), gomock.Any()).Return(nil, nil)
	fetcher.EXPECT().FetchSeriesCategories(gomock.Any(), gomock.Any()).Return(nil, nil)
	fetcher.EXPECT().FetchSeries(gomock.Any(), gomock.Any()).Return(nil, nil)

	s, _, profileID := newTestScheduler(t, fetcher)
	h, progress := NewHandle(context.Background(), profileID)

	err := s.IncrementalSync(context.Background(), h)
	require.NoError(t, err)

	final := drainProgress(progress)
	assert.Equal(t, models.SyncStatusCompleted, final.Status)
}

// TestIncrementalSyncCancelStopsBeforeWatermarksUpdate cancels a handle's
// own context (the way Registry.Cancel does via Handle.Cancel) before the
// delta fetch returns, and checks the sync aborts through the fail path
// rather than completing as if nothing happened. This is the regression
// the dispatch fix (threading h.Ctx() instead of the scheduler's ambient
// context) guards against: a cancellation has to reach the context this
// sync actually checks.
func TestIncrementalSyncCancelStopsBeforeWatermarksUpdate(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := NewMockFetcher(ctrl)

	block := make(chan struct{})
	fetcher.EXPECT().FetchChannels(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ models.Credentials) ([]models.Channel, error) {
			<-block
			return nil, ctx.Err()
		}).AnyTimes()
	fetcher.EXPECT().FetchMovies(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ models.Credentials) ([]models.Movie, error) {
			<-block
			return nil, ctx.Err()
		}).AnyTimes()
	fetcher.EXPECT().FetchSeries(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ models.Credentials) ([]models.Series, error) {
			<-block
			return nil, ctx.Err()
		}).AnyTimes()

	s, conn, profileID := newTestScheduler(t, fetcher)
	// Stamp a watermark so IncrementalSync takes the delta path instead of
	// delegating to FullSync.
	require.NoError(t, UpdateLastSyncTimestamp(context.Background(), conn, profileID, "channels"))
	require.NoError(t, UpdateLastSyncTimestamp(context.Background(), conn, profileID, "movies"))
	require.NoError(t, UpdateLastSyncTimestamp(context.Background(), conn, profileID, "series"))
	before, err := GetLastSyncTimestamps(context.Background(), conn, profileID)
	require.NoError(t, err)

	h, progress := NewHandle(context.Background(), profileID)

	done := make(chan error, 1)
	go func() { done <- s.IncrementalSync(h.Ctx(), h) }()

	h.Cancel()
	close(block)

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("IncrementalSync did not return after cancellation")
	}

	final := drainProgress(progress)
	assert.Equal(t, models.SyncStatusFailed, final.Status)

	after, err := GetLastSyncTimestamps(context.Background(), conn, profileID)
	require.NoError(t, err)
	assert.Equal(t, before.Channels.Unix(), after.Channels.Unix(), "watermark must not advance on a cancelled sync")
}
