package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := NewManager(path)

	s, err := m.Load()
	require.NoError(t, err)
	require.Equal(t, DefaultSettings(), s)
	require.FileExists(t, path)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := NewManager(path)

	want := DefaultSettings()
	want.DataDir = "custom-data"
	want.Scheduler.CheckIntervalSeconds = 300
	want.Log.Level = "debug"

	require.NoError(t, m.Save(want))

	reloaded := NewManager(path)
	got, err := reloaded.Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadBackfillsZeroValuedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := NewManager(path)

	require.NoError(t, m.Save(Settings{DataDir: "data"}))

	reloaded := NewManager(path)
	got, err := reloaded.Load()
	require.NoError(t, err)

	require.Equal(t, "data", got.DataDir)
	require.Equal(t, DefaultSettings().DatabasePath, got.DatabasePath)
	require.Equal(t, DefaultSettings().Scheduler.CheckIntervalSeconds, got.Scheduler.CheckIntervalSeconds)
	require.Equal(t, DefaultSettings().Log.MaxSize, got.Log.MaxSize)
}

func TestCheckIntervalConvertsSecondsToDuration(t *testing.T) {
	s := SchedulerSettings{CheckIntervalSeconds: 60}
	require.Equal(t, 60_000_000_000, int(s.CheckInterval()))
}
