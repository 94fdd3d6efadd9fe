package repository

import (
	"github.com/tunelab/songbook/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Songs *SongRepository
}

// NewRepositories constructs the repository container from the shared
// application dependencies.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Songs: NewSongRepository(s),
	}
}
