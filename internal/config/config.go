// Package config manages environment variables.
//
// It reads variables from the process environment (optionally loaded from a
// `.env` file), maps them into structured Go types, and validates that
// required values are present so the app fails fast on bad config.
package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads a `.env` file into the process env, if
	// present, before any env var is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// Config is the root configuration object for the application.
//
// Env vars use the SONGBOOK_ prefix and dot-delimited nesting, e.g.
// SONGBOOK_SERVER.PORT -> Config.Server.Port.
//
// Redis is a pointer because it is optional: when absent, the rate limiter
// stays disabled and no Redis connection is attempted.
type Config struct {
	Primary  Primary        `koanf:"primary" validate:"required"`
	Server   ServerConfig   `koanf:"server" validate:"required"`
	Database DatabaseConfig `koanf:"database" validate:"required"`
	Redis    *RedisConfig   `koanf:"redis"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
}

// DatabaseConfig contains MongoDB connection parameters.
//
// URI takes precedence when set; otherwise one is built from Host and Port.
// Name is the database holding the songs collection.
type DatabaseConfig struct {
	URI            string `koanf:"uri"`
	Host           string `koanf:"host" validate:"required_without=URI"`
	Port           int    `koanf:"port" validate:"required_without=URI"`
	Name           string `koanf:"name" validate:"required"`
	ConnectTimeout int    `koanf:"connect_timeout"`
}

// RedisConfig contains Redis connection details and rate limiter tuning.
// Address is "host:port".
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`

	// RateLimit is the allowed number of requests per client IP within
	// RateWindow seconds. Zero disables enforcement.
	RateLimit  int `koanf:"rate_limit"`
	RateWindow int `koanf:"rate_window"`
}

// LoggingConfig controls the application logger.
type LoggingConfig struct {
	// Level is the verbosity threshold (debug/info/warn/error).
	Level string `koanf:"level"`

	// Format selects "json" or "console" output. Defaults to console in
	// the local env and JSON everywhere else.
	Format string `koanf:"format"`
}

// Load reads configuration from the environment, unmarshals it into Config,
// validates it, and applies defaults.
func Load() (*Config, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	k := koanf.New(".")

	err := k.Load(env.Provider("SONGBOOK_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SONGBOOK_"))
	}), nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("Could not load initial env variables.")
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		logger.Fatal().Err(err).Msg("Could not unmarshal main config.")
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		logger.Fatal().Err(err).Msg("Config validation failed.")
	}

	mainConfig.applyDefaults()

	return mainConfig, nil
}

func (c *Config) applyDefaults() {
	if c.Database.ConnectTimeout <= 0 {
		c.Database.ConnectTimeout = 10
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		if c.Primary.Env == "local" {
			c.Logging.Format = "console"
		} else {
			c.Logging.Format = "json"
		}
	}
	if c.Redis != nil && c.Redis.RateWindow <= 0 {
		c.Redis.RateWindow = 60
	}
}
