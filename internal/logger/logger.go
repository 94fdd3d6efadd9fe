// Package logger constructs the application's zerolog logger from config.
package logger

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/tunelab/songbook/internal/config"
)

// New builds the main application logger.
//
// Console output is human-oriented and intended for the local env; JSON is
// the default everywhere else so log pipelines can ingest it directly.
func New(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Logging.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().
		Timestamp().
		Str("service", "songbook").
		Str("env", cfg.Primary.Env).
		Logger()
}
