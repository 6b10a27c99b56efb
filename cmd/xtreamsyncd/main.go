// Command xtreamsyncd is a small host binary that wires every service
// together and runs the background sync scheduler until a termination
// signal arrives. It exposes no HTTP or CLI surface of its own, only
// process lifecycle.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"xtreamsync/config"
	"xtreamsync/internal/apperr"
	"xtreamsync/internal/db"
	"xtreamsync/models"
	"xtreamsync/services/contentcache"
	"xtreamsync/services/profiles"
	"xtreamsync/services/remotecache"
	"xtreamsync/services/scheduler"
	syncsvc "xtreamsync/services/sync"
	"xtreamsync/services/vault"
)

func main() {
	configPath := flag.String("config", "", "path to settings.json (default $XTREAMSYNC_CONFIG or ./data/settings.json)")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = os.Getenv("XTREAMSYNC_CONFIG")
	}
	if path == "" {
		path = filepath.Join("data", "settings.json")
	}

	cfgManager := config.NewManager(path)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	if settings.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(settings.Log.File), 0o755); err != nil {
			log.Printf("warning: could not create log directory: %v", err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("logging to file: %s", settings.Log.File)
		}
	}

	if err := os.MkdirAll(settings.DataDir, 0o755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}

	conn, err := db.Open(settings.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer conn.Close()

	v, err := vault.New(settings.KeyringService)
	if err != nil {
		log.Fatalf("failed to open credential vault: %v", err)
	}

	profileStore := profiles.New(conn, v)
	cache := contentcache.New(conn)

	remote, err := remotecache.New(conn)
	if err != nil {
		log.Fatalf("failed to open remote response cache: %v", err)
	}

	fmt.Println("xtreamsync daemon starting")

	fetcher := syncsvc.WithRetry(unconfiguredFetcher{})
	responseCache := remotecache.NewSyncAdapter(remote)
	syncScheduler := syncsvc.New(conn, cache, v, profileStore, fetcher, responseCache)

	bgScheduler := scheduler.New(profileStore, syncScheduler).
		WithCheckInterval(settings.Scheduler.CheckInterval())

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	bgScheduler.Start(context.Background())
	log.Println("background sync scheduler started")

	<-shutdownChan
	log.Println("shutdown signal received, cleaning up...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	bgScheduler.Stop(shutdownCtx)
	log.Println("shutdown complete")
}

// unconfiguredFetcher is the syncsvc.Fetcher implementation this daemon
// ships with: the Xtream HTTP client itself is out of scope for this module
// (only the Fetcher interface and test doubles are), so every call fails
// with a transient-network error until a real client is wired in here.
type unconfiguredFetcher struct{}

func (unconfiguredFetcher) FetchChannelCategories(ctx context.Context, creds models.Credentials) ([]models.Category, error) {
	return nil, apperr.Wrap(apperr.ErrTransientNetwork, "no Xtream HTTP client configured")
}

func (unconfiguredFetcher) FetchChannels(ctx context.Context, creds models.Credentials) ([]models.Channel, error) {
	return nil, apperr.Wrap(apperr.ErrTransientNetwork, "no Xtream HTTP client configured")
}

func (unconfiguredFetcher) FetchMovieCategories(ctx context.Context, creds models.Credentials) ([]models.Category, error) {
	return nil, apperr.Wrap(apperr.ErrTransientNetwork, "no Xtream HTTP client configured")
}

func (unconfiguredFetcher) FetchMovies(ctx context.Context, creds models.Credentials) ([]models.Movie, error) {
	return nil, apperr.Wrap(apperr.ErrTransientNetwork, "no Xtream HTTP client configured")
}

func (unconfiguredFetcher) FetchSeriesCategories(ctx context.Context, creds models.Credentials) ([]models.Category, error) {
	return nil, apperr.Wrap(apperr.ErrTransientNetwork, "no Xtream HTTP client configured")
}

func (unconfiguredFetcher) FetchSeries(ctx context.Context, creds models.Credentials) ([]models.Series, error) {
	return nil, apperr.Wrap(apperr.ErrTransientNetwork, "no Xtream HTTP client configured")
}

func (unconfiguredFetcher) FetchSeriesDetails(ctx context.Context, creds models.Credentials, seriesID int64) (models.SeriesDetails, error) {
	return models.SeriesDetails{}, apperr.Wrap(apperr.ErrTransientNetwork, "no Xtream HTTP client configured")
}
