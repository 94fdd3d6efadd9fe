package service

import (
	"github.com/tunelab/songbook/internal/repository"
	"github.com/tunelab/songbook/internal/server"
)

// Services is a container for all service instances.
type Services struct {
	Songs *SongService
}

// NewServices constructs the service container on top of the repositories.
func NewServices(s *server.Server, repos *repository.Repositories) *Services {
	return &Services{
		Songs: NewSongService(repos.Songs, s.Logger),
	}
}
