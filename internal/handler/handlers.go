package handler

import (
	"github.com/tunelab/songbook/internal/server"
	"github.com/tunelab/songbook/internal/service"
)

// Handlers is a container that groups all HTTP handlers, so router setup
// passes one object around instead of many.
type Handlers struct {
	Song   *SongHandler
	Health *HealthHandler
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Song:   NewSongHandler(s, services.Songs),
		Health: NewHealthHandler(s),
	}
}
