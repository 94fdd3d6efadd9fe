package handler

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tunelab/songbook/internal/errs"
	"github.com/tunelab/songbook/internal/model"
	"github.com/tunelab/songbook/internal/repository"
	"github.com/tunelab/songbook/internal/server"
	"github.com/tunelab/songbook/internal/service"
	"github.com/tunelab/songbook/internal/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultPageSize = 5

// SongHandler serves the songs catalog endpoints.
type SongHandler struct {
	Handler
	songs *service.SongService
}

// NewSongHandler constructs a SongHandler.
func NewSongHandler(s *server.Server, songs *service.SongService) *SongHandler {
	return &SongHandler{
		Handler: NewHandler(s),
		songs:   songs,
	}
}

// --- Requests ---------------------------------------------------------------

// ListSongsRequest carries the pagination query parameters. They bind as
// strings so a non-integer value yields the contractual message instead of
// echo's bind error.
type ListSongsRequest struct {
	Limit string `query:"limit"`
	Page  string `query:"page"`

	limit int64
	page  int64
}

// Validate coerces limit and page, applying defaults when absent. Both must
// be positive integers.
func (r *ListSongsRequest) Validate() error {
	r.limit = defaultPageSize
	r.page = 1

	if r.Limit != "" {
		v, err := strconv.ParseInt(r.Limit, 10, 64)
		if err != nil || v < 1 {
			return errs.NewBadRequestError("limit and page parameter must be an integer")
		}
		r.limit = v
	}

	if r.Page != "" {
		v, err := strconv.ParseInt(r.Page, 10, 64)
		if err != nil || v < 1 {
			return errs.NewBadRequestError("limit and page parameter must be an integer")
		}
		r.page = v
	}

	return nil
}

// AverageDifficultyRequest carries the optional level filter.
type AverageDifficultyRequest struct {
	Level string `query:"level"`

	level *int
}

func (r *AverageDifficultyRequest) Validate() error {
	if r.Level == "" {
		return nil
	}

	v, err := strconv.Atoi(r.Level)
	if err != nil {
		return errs.NewBadRequestError("level parameter must be an integer")
	}
	r.level = &v

	return nil
}

// SearchSongsRequest carries the required search string.
type SearchSongsRequest struct {
	Message string `query:"message"`
}

func (r *SearchSongsRequest) Validate() error {
	if r.Message == "" {
		return errs.NewBadRequestError("'message' parameter is required")
	}
	return nil
}

// SubmitRatingRequest carries the rating submission form fields.
//
// Validation order is part of the contract: missing fields, then rating
// range (a non-numeric rating counts as out of range), then identifier
// syntax. Existence of the song is checked by the store afterwards.
type SubmitRatingRequest struct {
	SongID string `form:"song_id"`
	Rating string `form:"rating"`

	id     primitive.ObjectID
	rating float64
}

func (r *SubmitRatingRequest) Validate() error {
	if r.SongID == "" || r.Rating == "" {
		return errs.NewBadRequestError("'song_id' and 'rating' parameter is required.")
	}

	rating, err := strconv.ParseFloat(r.Rating, 64)
	if err != nil || rating < 1 || rating > 5 {
		return errs.NewBadRequestError("'rating' parameter must be between 1-5")
	}
	r.rating = rating

	if !validation.IsValidObjectID(r.SongID) {
		return errs.NewBadRequestError("Invalid song id.")
	}
	r.id, _ = primitive.ObjectIDFromHex(r.SongID)

	return nil
}

// RatingStatsRequest carries the song identifier path parameter.
type RatingStatsRequest struct {
	SongID string `param:"song_id"`

	id primitive.ObjectID
}

func (r *RatingStatsRequest) Validate() error {
	if !validation.IsValidObjectID(r.SongID) {
		return errs.NewBadRequestError("Invalid song id")
	}
	r.id, _ = primitive.ObjectIDFromHex(r.SongID)
	return nil
}

// --- Responses --------------------------------------------------------------

// Link is one pagination link.
type Link struct {
	Href string `json:"href"`
}

// PaginationLinks mirrors the listing link contract: current and last page
// always, prev/next only when they exist.
type PaginationLinks struct {
	CurrentPage Link  `json:"current_page"`
	LastPage    Link  `json:"last_page"`
	PrevPage    *Link `json:"prev_page,omitempty"`
	NextPage    *Link `json:"next_page,omitempty"`
}

// ListSongsResponse is the listing payload.
type ListSongsResponse struct {
	Songs []model.Song    `json:"songs"`
	Links PaginationLinks `json:"links"`
}

// AverageDifficultyResponse is the difficulty aggregation payload.
type AverageDifficultyResponse struct {
	AverageDifficulty float64 `json:"average_difficulty"`
}

// SubmitRatingResponse confirms a recorded rating with the updated song.
type SubmitRatingResponse struct {
	Msg  string      `json:"msg"`
	Song *model.Song `json:"song"`
}

// --- Endpoints --------------------------------------------------------------

// ListSongs returns one page of the catalog with pagination links. An
// out-of-range page yields an empty song list, not an error.
func (h *SongHandler) ListSongs(c echo.Context, req *ListSongsRequest) (*ListSongsResponse, error) {
	songs, pagination, err := h.songs.ListSongs(c.Request().Context(), req.limit, req.page)
	if err != nil {
		return nil, err
	}

	return &ListSongsResponse{
		Songs: songs,
		Links: buildPaginationLinks(c, pagination),
	}, nil
}

// AverageDifficulty returns the mean difficulty, optionally filtered by
// level.
func (h *SongHandler) AverageDifficulty(c echo.Context, req *AverageDifficultyRequest) (*AverageDifficultyResponse, error) {
	avg, err := h.songs.AverageDifficulty(c.Request().Context(), req.level)
	if errors.Is(err, repository.ErrNoSongs) {
		return nil, errs.NewNotFoundError("No songs with choosen level")
	}
	if err != nil {
		return nil, err
	}

	return &AverageDifficultyResponse{AverageDifficulty: avg}, nil
}

// SearchSongs returns the raw matching song documents. An empty match set
// is a 200 with an empty array.
func (h *SongHandler) SearchSongs(c echo.Context, req *SearchSongsRequest) ([]model.Song, error) {
	return h.songs.SearchSongs(c.Request().Context(), req.Message)
}

// SubmitRating appends one rating to a song and returns the updated
// document.
func (h *SongHandler) SubmitRating(c echo.Context, req *SubmitRatingRequest) (*SubmitRatingResponse, error) {
	song, err := h.songs.SubmitRating(c.Request().Context(), req.id, req.rating)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errs.NewNotFoundError("Song not found.")
	}
	if err != nil {
		return nil, err
	}

	return &SubmitRatingResponse{
		Msg:  "Ratings for the song updated",
		Song: song,
	}, nil
}

// RatingStats returns the average, minimum, and maximum rating of a song.
func (h *SongHandler) RatingStats(c echo.Context, req *RatingStatsRequest) (*model.RatingStats, error) {
	stats, err := h.songs.RatingStats(c.Request().Context(), req.id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errs.NewNotFoundError("Song not found")
	}
	if errors.Is(err, service.ErrNoRatings) {
		return nil, errs.NewNotFoundError("Song don't have rating yet.")
	}
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// buildPaginationLinks renders absolute URLs for the listing page window.
// Links carry only the page parameter; a custom limit is not propagated,
// matching the established contract.
func buildPaginationLinks(c echo.Context, p service.Pagination) PaginationLinks {
	pageURL := func(page int64) string {
		u := url.URL{
			Scheme: c.Scheme(),
			Host:   c.Request().Host,
			Path:   c.Path(),
		}
		q := url.Values{}
		q.Set("page", strconv.FormatInt(page, 10))
		u.RawQuery = q.Encode()
		return u.String()
	}

	links := PaginationLinks{
		CurrentPage: Link{Href: pageURL(p.CurrentPage)},
		LastPage:    Link{Href: pageURL(p.LastPage)},
	}
	if p.HasPrev {
		links.PrevPage = &Link{Href: pageURL(p.CurrentPage - 1)}
	}
	if p.HasNext {
		links.NextPage = &Link{Href: pageURL(p.CurrentPage + 1)}
	}

	return links
}
