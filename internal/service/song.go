package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/tunelab/songbook/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNoRatings is returned when rating statistics are requested for a song
// that has no ratings yet.
var ErrNoRatings = errors.New("song has no ratings")

// SongStore is the document-store dependency of the song service.
//
// The production implementation is repository.SongRepository; tests inject
// an in-memory fake. Not-found conditions surface as repository.ErrNotFound
// and empty aggregations as repository.ErrNoSongs.
type SongStore interface {
	List(ctx context.Context, limit, page int64) ([]model.Song, error)
	Count(ctx context.Context) (int64, error)
	AverageDifficulty(ctx context.Context, level *int) (float64, error)
	Search(ctx context.Context, message string) ([]model.Song, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Song, error)
	PushRating(ctx context.Context, id primitive.ObjectID, rating float64) (*model.Song, error)
	RatingStats(ctx context.Context, id primitive.ObjectID) (*model.RatingStats, error)
}

// Pagination describes the page window of a listing result. LastPage is
// floor(total/limit)+1, so a collection holding an exact multiple of limit
// reports one trailing empty page, matching the link contract.
type Pagination struct {
	CurrentPage int64
	LastPage    int64
	HasPrev     bool
	HasNext     bool
	Total       int64
}

// SongService implements the catalog operations over an injected SongStore.
type SongService struct {
	store SongStore
	log   *zerolog.Logger
}

// NewSongService constructs a SongService.
func NewSongService(store SongStore, logger *zerolog.Logger) *SongService {
	return &SongService{
		store: store,
		log:   logger,
	}
}

// ListSongs returns one page of songs plus the pagination window computed
// from the total count. limit and page must already be validated positive.
func (s *SongService) ListSongs(ctx context.Context, limit, page int64) ([]model.Song, Pagination, error) {
	songs, err := s.store.List(ctx, limit, page)
	if err != nil {
		return nil, Pagination{}, err
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, Pagination{}, err
	}

	pagination := Pagination{
		CurrentPage: page,
		LastPage:    total/limit + 1,
		HasPrev:     page > 1,
		HasNext:     page-1 < total/limit,
		Total:       total,
	}

	return songs, pagination, nil
}

// AverageDifficulty computes the mean difficulty, optionally restricted to
// one level. Propagates repository.ErrNoSongs when nothing matches.
func (s *SongService) AverageDifficulty(ctx context.Context, level *int) (float64, error) {
	return s.store.AverageDifficulty(ctx, level)
}

// SearchSongs runs the full-text search. An empty result is a valid
// outcome and comes back as an empty slice.
func (s *SongService) SearchSongs(ctx context.Context, message string) ([]model.Song, error) {
	return s.store.Search(ctx, message)
}

// SubmitRating appends one rating to the identified song and returns the
// updated document. Propagates repository.ErrNotFound for unknown songs.
func (s *SongService) SubmitRating(ctx context.Context, id primitive.ObjectID, rating float64) (*model.Song, error) {
	song, err := s.store.PushRating(ctx, id, rating)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("song_id", id.Hex()).
		Float64("rating", rating).
		Int("rating_count", len(song.Ratings)).
		Msg("rating recorded")

	return song, nil
}

// RatingStats returns the aggregate rating values for one song.
//
// The song is fetched first so a missing document and a document without
// ratings produce distinct errors, in that order.
func (s *SongService) RatingStats(ctx context.Context, id primitive.ObjectID) (*model.RatingStats, error) {
	song, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !song.HasRatings() {
		return nil, ErrNoRatings
	}

	return s.store.RatingStats(ctx, id)
}
