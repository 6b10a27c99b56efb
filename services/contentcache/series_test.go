package contentcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xtreamsync/internal/apperr"
	"xtreamsync/models"
)

func TestSaveSeriesUpsert(t *testing.T) {
	c, conn := newTestCache(t)
	ctx := context.Background()
	p1 := createProfile(t, conn, "p1")
	require.NoError(t, c.InitializeProfile(ctx, p1))

	n, err := c.SaveSeries(ctx, p1, []models.Series{{SeriesID: 1, Name: "Show"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = c.SaveSeries(ctx, p1, []models.Series{{SeriesID: 1, Name: "Show Renamed"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := c.GetSeries(ctx, p1, nil, nil, models.DefaultPagination())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Show Renamed", got[0].Name)
}

func TestSaveSeriesDetailsAndGet(t *testing.T) {
	c, conn := newTestCache(t)
	ctx := context.Background()
	p1 := createProfile(t, conn, "p1")
	require.NoError(t, c.InitializeProfile(ctx, p1))

	details := models.SeriesDetails{
		Series: models.Series{SeriesID: 1, Name: "Show"},
		Seasons: []models.Season{
			{SeasonNumber: 1, Name: "Season 1", EpisodeCount: 2},
		},
		Episodes: []models.Episode{
			{EpisodeID: 100, SeasonNumber: 1, EpisodeNum: 1, Title: "Pilot"},
			{EpisodeID: 101, SeasonNumber: 1, EpisodeNum: 2, Title: "Second"},
		},
	}
	require.NoError(t, c.SaveSeriesDetails(ctx, p1, details))

	got, err := c.GetSeriesDetails(ctx, p1, 1)
	require.NoError(t, err)
	assert.Equal(t, "Show", got.Series.Name)
	require.Len(t, got.Seasons, 1)
	assert.Equal(t, "Season 1", got.Seasons[0].Name)
	require.Len(t, got.Episodes, 2)
	assert.Equal(t, "Pilot", got.Episodes[0].Title)
}

func TestGetSeriesDetailsNotFound(t *testing.T) {
	c, conn := newTestCache(t)
	p1 := createProfile(t, conn, "p1")
	_, err := c.GetSeriesDetails(context.Background(), p1, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetSeasonsAndEpisodesFiltering(t *testing.T) {
	c, conn := newTestCache(t)
	ctx := context.Background()
	p1 := createProfile(t, conn, "p1")
	require.NoError(t, c.InitializeProfile(ctx, p1))

	details := models.SeriesDetails{
		Series: models.Series{SeriesID: 1, Name: "Show"},
		Seasons: []models.Season{
			{SeasonNumber: 1, Name: "S1"},
			{SeasonNumber: 2, Name: "S2"},
		},
		Episodes: []models.Episode{
			{EpisodeID: 1, SeasonNumber: 1, EpisodeNum: 1},
			{EpisodeID: 2, SeasonNumber: 2, EpisodeNum: 1},
		},
	}
	require.NoError(t, c.SaveSeriesDetails(ctx, p1, details))

	seasons, err := c.GetSeasons(ctx, p1, 1)
	require.NoError(t, err)
	assert.Len(t, seasons, 2)

	season2 := 2
	eps, err := c.GetEpisodes(ctx, p1, 1, &season2)
	require.NoError(t, err)
	require.Len(t, eps, 1)
	assert.Equal(t, int64(2), eps[0].EpisodeID)

	allEps, err := c.GetEpisodes(ctx, p1, 1, nil)
	require.NoError(t, err)
	assert.Len(t, allEps, 2)
}

func TestDeleteSeriesCascadesSeasonsAndEpisodes(t *testing.T) {
	c, conn := newTestCache(t)
	ctx := context.Background()
	p1 := createProfile(t, conn, "p1")
	require.NoError(t, c.InitializeProfile(ctx, p1))

	details := models.SeriesDetails{
		Series:   models.Series{SeriesID: 1, Name: "Show"},
		Seasons:  []models.Season{{SeasonNumber: 1, Name: "S1"}},
		Episodes: []models.Episode{{EpisodeID: 1, SeasonNumber: 1, EpisodeNum: 1}},
	}
	require.NoError(t, c.SaveSeriesDetails(ctx, p1, details))

	n, err := c.DeleteSeries(ctx, p1, []int64{1})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	seasons, err := c.GetSeasons(ctx, p1, 1)
	require.NoError(t, err)
	assert.Empty(t, seasons)

	eps, err := c.GetEpisodes(ctx, p1, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, eps)
}

func TestSearchSeriesMatchesAcrossFields(t *testing.T) {
	c, conn := newTestCache(t)
	ctx := context.Background()
	p1 := createProfile(t, conn, "p1")
	require.NoError(t, c.InitializeProfile(ctx, p1))

	_, err := c.SaveSeries(ctx, p1, []models.Series{
		{SeriesID: 1, Name: "Drama Show", Genre: "Drama"},
		{SeriesID: 2, Name: "Comedy Show", Genre: "Comedy"},
	})
	require.NoError(t, err)

	got, err := c.SearchSeries(ctx, p1, "Drama", nil, nil, models.DefaultPagination())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].SeriesID)
}

func TestFTSSearchSeriesReflectsRenameAfterUpsert(t *testing.T) {
	// SaveSeries (not SaveSeriesDetails) is the path that populates the FTS
	// shadow table; confirm a rename through it is reflected immediately.
	c, conn := newTestCache(t)
	ctx := context.Background()
	p1 := createProfile(t, conn, "p1")
	require.NoError(t, c.InitializeProfile(ctx, p1))

	_, err := c.SaveSeries(ctx, p1, []models.Series{{SeriesID: 1, Name: "Old Show"}})
	require.NoError(t, err)

	_, err = c.SaveSeries(ctx, p1, []models.Series{{SeriesID: 1, Name: "New Show"}})
	require.NoError(t, err)

	got, err := c.FTSSearchSeries(ctx, p1, "New", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "New Show", got[0].Name)

	stale, err := c.FTSSearchSeries(ctx, p1, "Old", 10)
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestCountSeries(t *testing.T) {
	c, conn := newTestCache(t)
	ctx := context.Background()
	p1 := createProfile(t, conn, "p1")
	require.NoError(t, c.InitializeProfile(ctx, p1))

	_, err := c.SaveSeries(ctx, p1, []models.Series{{SeriesID: 1, Name: "A"}, {SeriesID: 2, Name: "B"}})
	require.NoError(t, err)

	n, err := c.CountSeries(ctx, p1, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
