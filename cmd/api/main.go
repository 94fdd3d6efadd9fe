// Command api runs the songbook HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tunelab/songbook/internal/config"
	"github.com/tunelab/songbook/internal/handler"
	"github.com/tunelab/songbook/internal/logger"
	"github.com/tunelab/songbook/internal/middleware"
	"github.com/tunelab/songbook/internal/repository"
	"github.com/tunelab/songbook/internal/router"
	"github.com/tunelab/songbook/internal/server"
	"github.com/tunelab/songbook/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	log := logger.New(cfg)

	s, err := server.New(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	repos := repository.NewRepositories(s)
	services := service.NewServices(s, repos)
	handlers := handler.NewHandlers(s, services)
	middlewares := middleware.NewMiddlewares(s)

	r := router.New(s, handlers, middlewares)
	s.SetupHTTPServer(r)

	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
