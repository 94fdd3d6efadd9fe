package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tunelab/songbook/internal/handler"
)

// registerSongRoutes maps the songs catalog endpoints.
func registerSongRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/songs", handler.Handle(h.Song.Handler, h.Song.ListSongs, http.StatusOK))
	r.GET("/songs/difficulty/avg", handler.Handle(h.Song.Handler, h.Song.AverageDifficulty, http.StatusOK))
	r.GET("/songs/search", handler.Handle(h.Song.Handler, h.Song.SearchSongs, http.StatusOK))
	r.POST("/songs/rating", handler.Handle(h.Song.Handler, h.Song.SubmitRating, http.StatusCreated))
	r.GET("/songs/rating/:song_id", handler.Handle(h.Song.Handler, h.Song.RatingStats, http.StatusOK))
}
