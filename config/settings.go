// Package config loads and persists the daemon's settings: the data
// directory, SQLite path, OS-keyring service name, background-scheduler
// tick interval, and log file rotation. Built on github.com/spf13/viper
// for layered config/env/defaults, with an atomic-write-then-rename Save
// and backfill-on-load for settings introduced after a config file was
// first written.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LogSettings controls log file rotation via lumberjack.
type LogSettings struct {
	File       string `mapstructure:"file" json:"file"`
	Level      string `mapstructure:"level" json:"level"`
	MaxSize    int    `mapstructure:"maxSize" json:"maxSize"`
	MaxAge     int    `mapstructure:"maxAge" json:"maxAge"`
	MaxBackups int    `mapstructure:"maxBackups" json:"maxBackups"`
	Compress   bool   `mapstructure:"compress" json:"compress"`
}

// SchedulerSettings controls the background sync dispatch loop.
type SchedulerSettings struct {
	CheckIntervalSeconds int `mapstructure:"checkIntervalSeconds" json:"checkIntervalSeconds"`
}

// Settings is the full set of daemon configuration.
type Settings struct {
	DataDir       string            `mapstructure:"dataDir" json:"dataDir"`
	DatabasePath  string            `mapstructure:"databasePath" json:"databasePath"`
	KeyringService string           `mapstructure:"keyringService" json:"keyringService"`
	Scheduler     SchedulerSettings `mapstructure:"scheduler" json:"scheduler"`
	Log           LogSettings       `mapstructure:"log" json:"log"`
}

// DefaultSettings returns sane defaults for a fresh install, mirroring the
// teacher's DefaultSettings shape and value choices for the fields this
// domain retains (data directory, database path, log rotation sizes).
func DefaultSettings() Settings {
	return Settings{
		DataDir:        "data",
		DatabasePath:   filepath.Join("data", "xtreamsync.db"),
		KeyringService: "xtreamsync",
		Scheduler: SchedulerSettings{
			CheckIntervalSeconds: 900, // 15 minutes, matching the scheduler package default
		},
		Log: LogSettings{
			File:       filepath.Join("data", "logs", "xtreamsync.log"),
			Level:      "info",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// Manager loads and persists Settings through viper, with an on-disk
// config file as the base layer and XTREAMSYNC_-prefixed environment
// variables overriding it.
type Manager struct {
	path string
	v    *viper.Viper
}

// NewManager constructs a Manager rooted at configPath. Load must be
// called before the settings are usable.
func NewManager(configPath string) *Manager {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetEnvPrefix("XTREAMSYNC")
	v.AutomaticEnv()

	defaults := DefaultSettings()
	v.SetDefault("dataDir", defaults.DataDir)
	v.SetDefault("databasePath", defaults.DatabasePath)
	v.SetDefault("keyringService", defaults.KeyringService)
	v.SetDefault("scheduler.checkIntervalSeconds", defaults.Scheduler.CheckIntervalSeconds)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.maxSize", defaults.Log.MaxSize)
	v.SetDefault("log.maxBackups", defaults.Log.MaxBackups)
	v.SetDefault("log.maxAge", defaults.Log.MaxAge)
	v.SetDefault("log.compress", defaults.Log.Compress)

	return &Manager{path: configPath, v: v}
}

// EnsureDir ensures the config file's parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads the config file from disk, creating it with defaults if
// missing, then backfills any fields left zero-valued by an older config
// file that predates them.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}

	if _, err := os.Stat(m.path); errors.Is(err, os.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}

	if err := m.v.ReadInConfig(); err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := m.v.Unmarshal(&s); err != nil {
		return Settings{}, err
	}

	backfill(&s)
	return s, nil
}

// backfill restores defaults for settings left zero-valued by a config
// file written before those settings existed, the same pattern the
// teacher's Load used for its own newly introduced settings.
func backfill(s *Settings) {
	defaults := DefaultSettings()

	if strings.TrimSpace(s.DataDir) == "" {
		s.DataDir = defaults.DataDir
	}
	if strings.TrimSpace(s.DatabasePath) == "" {
		s.DatabasePath = defaults.DatabasePath
	}
	if strings.TrimSpace(s.KeyringService) == "" {
		s.KeyringService = defaults.KeyringService
	}
	if s.Scheduler.CheckIntervalSeconds == 0 {
		s.Scheduler.CheckIntervalSeconds = defaults.Scheduler.CheckIntervalSeconds
	}
	if strings.TrimSpace(s.Log.File) == "" {
		s.Log.File = defaults.Log.File
	}
	if strings.TrimSpace(s.Log.Level) == "" {
		s.Log.Level = defaults.Log.Level
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = defaults.Log.MaxSize
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = defaults.Log.MaxBackups
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = defaults.Log.MaxAge
	}
}

// Save writes the provided settings to disk atomically: encode to a
// temp file alongside the target, then rename over it, exactly as the
// teacher's Manager.Save does.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}

	tmp := m.path + ".tmp"
	out := viper.New()
	out.SetConfigType("json")
	out.Set("dataDir", s.DataDir)
	out.Set("databasePath", s.DatabasePath)
	out.Set("keyringService", s.KeyringService)
	out.Set("scheduler.checkIntervalSeconds", s.Scheduler.CheckIntervalSeconds)
	out.Set("log.file", s.Log.File)
	out.Set("log.level", s.Log.Level)
	out.Set("log.maxSize", s.Log.MaxSize)
	out.Set("log.maxBackups", s.Log.MaxBackups)
	out.Set("log.maxAge", s.Log.MaxAge)
	out.Set("log.compress", s.Log.Compress)

	if err := out.WriteConfigAs(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, m.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	m.v.SetConfigFile(m.path)
	return nil
}

// CheckInterval returns the scheduler tick interval as a duration.
func (s SchedulerSettings) CheckInterval() time.Duration {
	return time.Duration(s.CheckIntervalSeconds) * time.Second
}
