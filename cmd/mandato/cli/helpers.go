package cli

import (
	"log/slog"
	"os"

	"github.com/mandatohub/mandato/internal/config"
	"github.com/mandatohub/mandato/internal/store"
)

// loadConfig resolves the effective configuration for a CLI run.
func loadConfig() (*config.Config, error) {
	return config.Load()
}

// openStore opens the backing database as configured.
func openStore(cfg *config.Config) (*store.Store, error) {
	return store.NewStore(store.Options{
		Driver:  cfg.Store.Driver,
		DSN:     cfg.Store.DSN,
		DataDir: cfg.Store.DataDir,
	})
}

// newLogger builds the process logger from the logging config.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
