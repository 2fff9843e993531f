package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goodtune/tally/internal/config"
	"github.com/goodtune/tally/internal/storage"
	"github.com/goodtune/tally/internal/storage/bolt"
	"github.com/goodtune/tally/internal/storage/cached"
	"github.com/goodtune/tally/internal/storage/redis"
	"github.com/rs/zerolog"
)

func main() {
	Execute()
}

// app bundles what every command needs once configuration is loaded
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	store  storage.Store
}

// newApp loads configuration, sets up logging and opens the store
func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging, os.Stderr)

	store, err := openStorage(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	logger.Debug().
		Str("config", configPath).
		Str("storage", cfg.Storage.Type).
		Msg("Storage opened")

	return &app{cfg: cfg, logger: logger, store: store}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close storage")
	}
}

// openStorage opens the configured backend and wraps it with the activity cache
func openStorage(cfg config.StorageConfig, logger zerolog.Logger) (storage.Store, error) {
	storageType := cfg.Type
	if storageType == "" {
		storageType = "bolt"
	}

	var (
		store storage.Store
		err   error
	)
	switch storageType {
	case "bolt":
		store, err = bolt.Open(cfg.Path)
	case "redis":
		store, err = redis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s (must be bolt or redis)", storageType)
	}
	if err != nil {
		return nil, err
	}

	wrapped, err := cached.Wrap(store, cfg.CacheSize, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return wrapped, nil
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	// Set log level
	level := zerolog.WarnLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Set output format
	if cfg.Format == "json" {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}

// parseDuration parses a duration string with a fallback
func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// resolveActivity finds an activity by ID, then by case-insensitive name
func resolveActivity(ctx context.Context, store storage.Store, ref string) (*storage.Activity, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("activity name or id is required")
	}

	activity, err := store.Activities().Get(ctx, ref)
	if err == nil {
		return activity, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	activities, err := store.Activities().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	var matches []storage.Activity
	for _, a := range activities {
		if strings.EqualFold(a.Name, ref) {
			matches = append(matches, a)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("activity %q: %w", ref, storage.ErrNotFound)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("activity name %q is ambiguous (%d matches), use the id", ref, len(matches))
	}
}
