package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/tunelab/songbook/internal/middleware"
	"github.com/tunelab/songbook/internal/model"
	"github.com/tunelab/songbook/internal/repository"
	"github.com/tunelab/songbook/internal/server"
	"github.com/tunelab/songbook/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeSongStore is an in-memory service.SongStore mirroring the store
// semantics the handlers depend on: _id ordering, sentinel errors, and
// two-decimal rounding in aggregations.
type fakeSongStore struct {
	songs []model.Song
}

func (f *fakeSongStore) sorted() []model.Song {
	out := make([]model.Song, len(f.songs))
	copy(out, f.songs)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

func (f *fakeSongStore) List(_ context.Context, limit, page int64) ([]model.Song, error) {
	all := f.sorted()
	start := limit * (page - 1)
	if start >= int64(len(all)) {
		return []model.Song{}, nil
	}
	end := start + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[start:end], nil
}

func (f *fakeSongStore) Count(_ context.Context) (int64, error) {
	return int64(len(f.songs)), nil
}

func (f *fakeSongStore) AverageDifficulty(_ context.Context, level *int) (float64, error) {
	var sum float64
	var n int
	for _, s := range f.songs {
		if level != nil && s.Level != *level {
			continue
		}
		sum += s.Difficulty
		n++
	}
	if n == 0 {
		return 0, repository.ErrNoSongs
	}
	return math.Round(sum/float64(n)*100) / 100, nil
}

func (f *fakeSongStore) Search(_ context.Context, message string) ([]model.Song, error) {
	tokens := strings.Fields(strings.ToLower(message))
	matches := []model.Song{}
	for _, s := range f.sorted() {
		text := strings.ToLower(s.Title + " " + s.Artist)
		for _, token := range tokens {
			if strings.Contains(text, token) {
				matches = append(matches, s)
				break
			}
		}
	}
	return matches, nil
}

func (f *fakeSongStore) FindByID(_ context.Context, id primitive.ObjectID) (*model.Song, error) {
	for i := range f.songs {
		if f.songs[i].ID == id {
			song := f.songs[i]
			return &song, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSongStore) PushRating(_ context.Context, id primitive.ObjectID, rating float64) (*model.Song, error) {
	for i := range f.songs {
		if f.songs[i].ID == id {
			f.songs[i].Ratings = append(f.songs[i].Ratings, rating)
			song := f.songs[i]
			return &song, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSongStore) RatingStats(_ context.Context, id primitive.ObjectID) (*model.RatingStats, error) {
	song, err := f.FindByID(context.Background(), id)
	if err != nil {
		return nil, err
	}
	if len(song.Ratings) == 0 {
		return nil, repository.ErrNotFound
	}

	stats := model.RatingStats{
		MinRating: song.Ratings[0],
		MaxRating: song.Ratings[0],
	}
	var sum float64
	for _, r := range song.Ratings {
		sum += r
		if r < stats.MinRating {
			stats.MinRating = r
		}
		if r > stats.MaxRating {
			stats.MaxRating = r
		}
	}
	stats.AverageRating = math.Round(sum/float64(len(song.Ratings))*100) / 100
	return &stats, nil
}

// testID builds a deterministic ObjectID whose ordering matches n.
func testID(t *testing.T, n int) primitive.ObjectID {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(fmt.Sprintf("%024x", n+1))
	if err != nil {
		t.Fatalf("build test id: %v", err)
	}
	return id
}

func fixtureSongs(t *testing.T, n int) []model.Song {
	t.Helper()
	songs := make([]model.Song, 0, n)
	for i := 0; i < n; i++ {
		songs = append(songs, model.Song{
			ID:         testID(t, i),
			Title:      fmt.Sprintf("Song %02d", i),
			Artist:     "The Yousicians",
			Difficulty: float64(i + 1),
			Level:      i%3 + 1,
			Released:   "2016-10-26",
		})
	}
	return songs
}

func newTestAPI(t *testing.T, store service.SongStore) *echo.Echo {
	t.Helper()

	log := zerolog.Nop()
	srv := &server.Server{Logger: &log}

	h := NewSongHandler(srv, service.NewSongService(store, &log))

	e := echo.New()
	e.HTTPErrorHandler = middleware.NewGlobalMiddlewares(srv).GlobalErrorHandler

	e.GET("/songs", Handle(h.Handler, h.ListSongs, http.StatusOK))
	e.GET("/songs/difficulty/avg", Handle(h.Handler, h.AverageDifficulty, http.StatusOK))
	e.GET("/songs/search", Handle(h.Handler, h.SearchSongs, http.StatusOK))
	e.POST("/songs/rating", Handle(h.Handler, h.SubmitRating, http.StatusCreated))
	e.GET("/songs/rating/:song_id", Handle(h.Handler, h.RatingStats, http.StatusOK))

	return e
}

func doGET(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func doForm(e *echo.Echo, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func wantError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	body := decodeBody[map[string]string](t, rec)
	if body["error"] != message {
		t.Fatalf("error message = %q, want %q", body["error"], message)
	}
}

// --- Listing ----------------------------------------------------------------

type listResponse struct {
	Songs []model.Song                 `json:"songs"`
	Links map[string]map[string]string `json:"links"`
}

func TestListSongsDefaults(t *testing.T) {
	e := newTestAPI(t, &fakeSongStore{songs: fixtureSongs(t, 12)})

	rec := doGET(e, "/songs")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	body := decodeBody[listResponse](t, rec)
	if len(body.Songs) != 5 {
		t.Fatalf("got %d songs, want default limit 5", len(body.Songs))
	}
	if body.Songs[0].Title != "Song 00" {
		t.Fatalf("first song = %q, want Song 00", body.Songs[0].Title)
	}

	if got := body.Links["current_page"]["href"]; got != "http://example.com/songs?page=1" {
		t.Fatalf("current_page = %q", got)
	}
	// 12 songs, limit 5: floor(12/5)+1 = 3.
	if got := body.Links["last_page"]["href"]; got != "http://example.com/songs?page=3" {
		t.Fatalf("last_page = %q", got)
	}
	if _, ok := body.Links["prev_page"]; ok {
		t.Fatal("prev_page present on first page")
	}
	if got := body.Links["next_page"]["href"]; got != "http://example.com/songs?page=2" {
		t.Fatalf("next_page = %q", got)
	}
}

func TestListSongsPagesAreDisjoint(t *testing.T) {
	e := newTestAPI(t, &fakeSongStore{songs: fixtureSongs(t, 12)})

	first := decodeBody[listResponse](t, doGET(e, "/songs?limit=5&page=1"))
	second := decodeBody[listResponse](t, doGET(e, "/songs?limit=5&page=2"))

	if len(first.Songs) != 5 || len(second.Songs) != 5 {
		t.Fatalf("page sizes = %d, %d, want 5, 5", len(first.Songs), len(second.Songs))
	}

	seen := map[string]bool{}
	for _, s := range first.Songs {
		seen[s.ID.Hex()] = true
	}
	for _, s := range second.Songs {
		if seen[s.ID.Hex()] {
			t.Fatalf("song %s appears on both pages", s.ID.Hex())
		}
	}

	if second.Links["prev_page"]["href"] != "http://example.com/songs?page=1" {
		t.Fatalf("prev_page = %q", second.Links["prev_page"]["href"])
	}
}

func TestListSongsRespectsLimit(t *testing.T) {
	e := newTestAPI(t, &fakeSongStore{songs: fixtureSongs(t, 12)})

	for _, limit := range []int{1, 3, 20} {
		rec := doGET(e, fmt.Sprintf("/songs?limit=%d", limit))
		body := decodeBody[listResponse](t, rec)
		if len(body.Songs) > limit {
			t.Fatalf("limit %d returned %d songs", limit, len(body.Songs))
		}
	}
}

func TestListSongsOutOfRangePage(t *testing.T) {
	e := newTestAPI(t, &fakeSongStore{songs: fixtureSongs(t, 3)})

	rec := doGET(e, "/songs?page=99")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody[listResponse](t, rec)
	if len(body.Songs) != 0 {
		t.Fatalf("got %d songs, want empty page", len(body.Songs))
	}
	if !strings.Contains(rec.Body.String(), `"songs":[]`) {
		t.Fatalf("songs should serialize as empty array: %s", rec.Body.String())
	}
}

func TestListSongsInvalidParams(t *testing.T) {
	e := newTestAPI(t, &fakeSongStore{songs: fixtureSongs(t, 3)})

	for _, target := range []string{
		"/songs?limit=abc",
		"/songs?page=abc",
		"/songs?limit=2.5",
		"/songs?page=0",
		"/songs?limit=-1",
	} {
		rec := doGET(e, target)
		wantError(t, rec, http.StatusBadRequest, "limit and page parameter must be an integer")
	}
}

// --- Average difficulty -----------------------------------------------------

func TestAverageDifficulty(t *testing.T) {
	// Difficulties 1..4, mean 2.5.
	e := newTestAPI(t, &fakeSongStore{songs: fixtureSongs(t, 4)})

	rec := doGET(e, "/songs/difficulty/avg")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string]float64](t, rec)
	if body["average_difficulty"] != 2.5 {
		t.Fatalf("average_difficulty = %v, want 2.5", body["average_difficulty"])
	}
}

func TestAverageDifficultyWithLevelFilter(t *testing.T) {
	// Levels cycle 1,2,3; level 2 holds difficulties 2 and 5 → mean 3.5.
	e := newTestAPI(t, &fakeSongStore{songs: fixtureSongs(t, 6)})

	rec := doGET(e, "/songs/difficulty/avg?level=2")
	body := decodeBody[map[string]float64](t, rec)
	if body["average_difficulty"] != 3.5 {
		t.Fatalf("average_difficulty = %v, want 3.5", body["average_difficulty"])
	}
}

func TestAverageDifficultyUnmatchedLevel(t *testing.T) {
	e := newTestAPI(t, &fakeSongStore{songs: fixtureSongs(t, 6)})

	rec := doGET(e, "/songs/difficulty/avg?level=42")
	wantError(t, rec, http.StatusNotFound, "No songs with choosen level")
}

func TestAverageDifficultyInvalidLevel(t *testing.T) {
	e := newTestAPI(t, &fakeSongStore{songs: fixtureSongs(t, 6)})

	rec := doGET(e, "/songs/difficulty/avg?level=easy")
	wantError(t, rec, http.StatusBadRequest, "level parameter must be an integer")
}

// --- Search -----------------------------------------------------------------

func TestSearchSongsMissingMessage(t *testing.T) {
	e := newTestAPI(t, &fakeSongStore{songs: fixtureSongs(t, 3)})

	rec := doGET(e, "/songs/search")
	wantError(t, rec, http.StatusBadRequest, "'message' parameter is required")
}

func TestSearchSongsCaseInsensitive(t *testing.T) {
	e := newTestAPI(t, &fakeSongStore{songs: fixtureSongs(t, 3)})

	for _, message := range []string{"The Yousicians", "ThE YouSicIAns"} {
		rec := doGET(e, "/songs/search?message="+url.QueryEscape(message))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
		}
		songs := decodeBody[[]model.Song](t, rec)
		if len(songs) != 3 {
			t.Fatalf("query %q matched %d songs, want 3", message, len(songs))
		}
	}
}

func TestSearchSongsNoMatches(t *testing.T) {
	e := newTestAPI(t, &fakeSongStore{songs: fixtureSongs(t, 3)})

	rec := doGET(e, "/songs/search?message=zzzzzz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("body = %q, want empty array", got)
	}
}

// --- Submit rating ----------------------------------------------------------

func TestSubmitRatingValidation(t *testing.T) {
	store := &fakeSongStore{songs: fixtureSongs(t, 1)}
	e := newTestAPI(t, store)
	songID := store.songs[0].ID.Hex()

	cases := []struct {
		name    string
		form    url.Values
		status  int
		message string
	}{
		{
			name:    "missing rating",
			form:    url.Values{"song_id": {songID}},
			status:  http.StatusBadRequest,
			message: "'song_id' and 'rating' parameter is required.",
		},
		{
			name:    "missing song_id",
			form:    url.Values{"rating": {"3"}},
			status:  http.StatusBadRequest,
			message: "'song_id' and 'rating' parameter is required.",
		},
		{
			name:    "rating too high",
			form:    url.Values{"song_id": {songID}, "rating": {"10"}},
			status:  http.StatusBadRequest,
			message: "'rating' parameter must be between 1-5",
		},
		{
			name:    "rating below range",
			form:    url.Values{"song_id": {songID}, "rating": {"0.5"}},
			status:  http.StatusBadRequest,
			message: "'rating' parameter must be between 1-5",
		},
		{
			name:    "rating not numeric",
			form:    url.Values{"song_id": {songID}, "rating": {"great"}},
			status:  http.StatusBadRequest,
			message: "'rating' parameter must be between 1-5",
		},
		{
			name:    "malformed song id",
			form:    url.Values{"song_id": {"1"}, "rating": {"3"}},
			status:  http.StatusBadRequest,
			message: "Invalid song id.",
		},
		{
			name:    "unknown song id",
			form:    url.Values{"song_id": {"ffffffffffffffffffffffff"}, "rating": {"3"}},
			status:  http.StatusNotFound,
			message: "Song not found.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doForm(e, "/songs/rating", tc.form)
			wantError(t, rec, tc.status, tc.message)
		})
	}
}

func TestSubmitRatingAppends(t *testing.T) {
	store := &fakeSongStore{songs: fixtureSongs(t, 1)}
	e := newTestAPI(t, store)
	songID := store.songs[0].ID.Hex()

	rec := doForm(e, "/songs/rating", url.Values{"song_id": {songID}, "rating": {"4.5"}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	body := decodeBody[struct {
		Msg  string     `json:"msg"`
		Song model.Song `json:"song"`
	}](t, rec)

	if body.Msg != "Ratings for the song updated" {
		t.Fatalf("msg = %q", body.Msg)
	}
	if len(body.Song.Ratings) != 1 || body.Song.Ratings[0] != 4.5 {
		t.Fatalf("song ratings = %v, want [4.5]", body.Song.Ratings)
	}

	// Append-only: a second rating grows the sequence.
	rec = doForm(e, "/songs/rating", url.Values{"song_id": {songID}, "rating": {"2"}})
	body = decodeBody[struct {
		Msg  string     `json:"msg"`
		Song model.Song `json:"song"`
	}](t, rec)
	if len(body.Song.Ratings) != 2 {
		t.Fatalf("song ratings = %v, want two entries", body.Song.Ratings)
	}
}

// --- Rating stats -----------------------------------------------------------

func TestRatingStatsValidation(t *testing.T) {
	e := newTestAPI(t, &fakeSongStore{songs: fixtureSongs(t, 1)})

	rec := doGET(e, "/songs/rating/1")
	wantError(t, rec, http.StatusBadRequest, "Invalid song id")

	rec = doGET(e, "/songs/rating/ffffffffffffffffffffffff")
	wantError(t, rec, http.StatusNotFound, "Song not found")
}

func TestRatingStatsNoRatingsYet(t *testing.T) {
	store := &fakeSongStore{songs: fixtureSongs(t, 1)}
	e := newTestAPI(t, store)

	rec := doGET(e, "/songs/rating/"+store.songs[0].ID.Hex())
	wantError(t, rec, http.StatusNotFound, "Song don't have rating yet.")
}

func TestRatingStatsSingleRating(t *testing.T) {
	store := &fakeSongStore{songs: fixtureSongs(t, 1)}
	store.songs[0].Ratings = []float64{3}
	e := newTestAPI(t, store)

	rec := doGET(e, "/songs/rating/"+store.songs[0].ID.Hex())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	stats := decodeBody[model.RatingStats](t, rec)
	if stats.AverageRating != 3 || stats.MinRating != 3 || stats.MaxRating != 3 {
		t.Fatalf("stats = %+v, want all 3.0", stats)
	}
}

func TestRatingStatsSpread(t *testing.T) {
	store := &fakeSongStore{songs: fixtureSongs(t, 1)}
	store.songs[0].Ratings = []float64{1, 3, 5}
	e := newTestAPI(t, store)

	rec := doGET(e, "/songs/rating/"+store.songs[0].ID.Hex())
	stats := decodeBody[model.RatingStats](t, rec)
	if stats.AverageRating != 3 {
		t.Fatalf("average_rating = %v, want 3", stats.AverageRating)
	}
	if stats.MinRating != 1 || stats.MaxRating != 5 {
		t.Fatalf("min/max = %v/%v, want 1/5", stats.MinRating, stats.MaxRating)
	}
}

func TestRatingStatsRounding(t *testing.T) {
	store := &fakeSongStore{songs: fixtureSongs(t, 1)}
	store.songs[0].Ratings = []float64{4, 5, 5}
	e := newTestAPI(t, store)

	rec := doGET(e, "/songs/rating/"+store.songs[0].ID.Hex())
	stats := decodeBody[model.RatingStats](t, rec)
	// 14/3 = 4.666..., rounded to two decimals.
	if stats.AverageRating != 4.67 {
		t.Fatalf("average_rating = %v, want 4.67", stats.AverageRating)
	}
}

func TestUnknownRoute(t *testing.T) {
	e := newTestAPI(t, &fakeSongStore{})

	rec := doGET(e, "/nope")
	wantError(t, rec, http.StatusNotFound, "Route not found")
}
