package contentcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xtreamsync/models"
)

func TestAnalyzeTablesRuns(t *testing.T) {
	c, _ := newTestCache(t)
	require.NoError(t, c.AnalyzeTables(context.Background()))
}

func TestVacuumDatabaseRuns(t *testing.T) {
	c, _ := newTestCache(t)
	require.NoError(t, c.VacuumDatabase(context.Background()))
}

func TestExplainQueryReturnsPlan(t *testing.T) {
	c, conn := newTestCache(t)
	ctx := context.Background()
	p1 := createProfile(t, conn, "p1")
	require.NoError(t, c.InitializeProfile(ctx, p1))
	_, err := c.SaveChannels(ctx, p1, []models.Channel{{StreamID: 1, Name: "A"}})
	require.NoError(t, err)

	plan, err := c.ExplainQuery(ctx, "SELECT * FROM xtream_channels WHERE profile_id = ?", p1)
	require.NoError(t, err)
	assert.NotEmpty(t, plan)
}
