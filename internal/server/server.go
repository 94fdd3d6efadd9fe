// Package server defines the core Server struct that composes the app's
// main dependencies.
//
// It owns the lifecycle of the configuration, logger, MongoDB connection,
// optional Redis client, and the http.Server, and provides start/shutdown
// logic to run the application cleanly.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/tunelab/songbook/internal/config"
	"github.com/tunelab/songbook/internal/database"
)

// Server is the application container that holds shared resources.
// It is not the HTTP server itself; that lives in httpServer and is
// configured via SetupHTTPServer.
type Server struct {
	Config *config.Config
	Logger *zerolog.Logger

	// DB holds the MongoDB connection wrapper.
	DB *database.Database

	// Redis is nil when no redis block is configured. The rate limiter
	// middleware checks for nil and disables itself.
	Redis *redis.Client

	httpServer *http.Server
}

// New constructs a Server and initializes core dependencies.
//
// MongoDB must be reachable or startup fails. Redis is optional: a failed
// ping is logged and startup continues without it, matching the "cache and
// limiter are best-effort" stance.
func New(cfg *config.Config, logger *zerolog.Logger) (*Server, error) {
	db, err := database.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis != nil {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Address,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error().Err(err).Msg("Failed to connect to Redis, continuing without Redis")
			redisClient = nil
		}
	}

	return &Server{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Redis:  redisClient,
	}, nil
}

// SetupHTTPServer configures the internal net/http server with the router.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It blocks until the server stops or errors.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server and closes dependencies.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			return fmt.Errorf("failed to close redis client: %w", err)
		}
	}

	return nil
}
