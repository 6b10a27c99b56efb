package models

import "time"

// SyncStatus is the sync scheduler's per-profile state machine value.
type SyncStatus string

const (
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusSyncing   SyncStatus = "syncing"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
	SyncStatusPartial   SyncStatus = "partial"
)

// SyncState is the single per-profile row tracking sync progress and
// bookkeeping, materialized on profile initialization.
type SyncState struct {
	ProfileID       string     `json:"profileId"`
	LastSyncChannels *time.Time `json:"lastSyncChannels,omitempty"`
	LastSyncMovies   *time.Time `json:"lastSyncMovies,omitempty"`
	LastSyncSeries   *time.Time `json:"lastSyncSeries,omitempty"`
	Status          SyncStatus `json:"status"`
	Progress        int        `json:"progress"`
	Message         string     `json:"message"`
	ChannelsCount   int        `json:"channelsCount"`
	MoviesCount     int        `json:"moviesCount"`
	SeriesCount     int        `json:"seriesCount"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// SyncSettings is the single per-profile row controlling auto-sync policy.
type SyncSettings struct {
	ProfileID         string `json:"profileId"`
	AutoSyncEnabled   bool   `json:"autoSyncEnabled"`
	SyncIntervalHours int    `json:"syncIntervalHours"`
	WifiOnly          bool   `json:"wifiOnly"`
	NotifyOnComplete  bool   `json:"notifyOnComplete"`
}

// DefaultSyncSettings returns the settings materialized for a freshly
// initialized profile.
func DefaultSyncSettings(profileID string) SyncSettings {
	return SyncSettings{
		ProfileID:         profileID,
		AutoSyncEnabled:   true,
		SyncIntervalHours: 24,
		WifiOnly:          true,
		NotifyOnComplete:  false,
	}
}

// SyncProgress is pushed onto the progress channel at each phase boundary.
type SyncProgress struct {
	ProfileID      string     `json:"profileId"`
	Status         SyncStatus `json:"status"`
	Progress       int        `json:"progress"` // 0-100
	CurrentStep    string     `json:"currentStep"`
	ChannelsSynced int        `json:"channelsSynced"`
	MoviesSynced   int        `json:"moviesSynced"`
	SeriesSynced   int        `json:"seriesSynced"`
	Errors         []string   `json:"errors,omitempty"`
}

// TotalSyncSteps is the fixed phase count used to compute progress:
// channel categories, channels, movie categories, movies, series
// categories, series.
const TotalSyncSteps = 6
