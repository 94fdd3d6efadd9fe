package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tunelab/songbook/internal/model"
	"github.com/tunelab/songbook/internal/server"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SongsCollection is the name of the collection holding song documents.
const SongsCollection = "songs"

// searchIndexName names the text index over title and artist.
const searchIndexName = "songs_search"

var (
	// ErrNotFound is returned when no song matches the given identifier.
	ErrNotFound = errors.New("song not found")

	// ErrNoSongs is returned when an aggregation matches no documents and
	// therefore produces no group.
	ErrNoSongs = errors.New("no matching songs")
)

// SongRepository performs all reads and writes against the songs collection.
type SongRepository struct {
	coll *mongo.Collection
	log  *zerolog.Logger
}

// NewSongRepository constructs a SongRepository bound to the songs
// collection.
func NewSongRepository(s *server.Server) *SongRepository {
	return &SongRepository{
		coll: s.DB.Collection(SongsCollection),
		log:  s.Logger,
	}
}

// List returns up to limit songs for the given 1-indexed page, ordered by
// _id ascending. The returned slice is never nil so an out-of-range page
// serializes as an empty JSON array.
func (r *SongRepository) List(ctx context.Context, limit, page int64) ([]model.Song, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(limit * (page - 1)).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}

	songs := []model.Song{}
	if err := cursor.All(ctx, &songs); err != nil {
		return nil, fmt.Errorf("decode songs: %w", err)
	}
	return songs, nil
}

// Count returns the total number of songs, independent of any page window.
func (r *SongRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count songs: %w", err)
	}
	return count, nil
}

// AverageDifficulty computes the mean difficulty across all songs, rounded
// to two decimals server-side. When level is non-nil only songs of that
// level are considered. ErrNoSongs is returned when nothing matches.
func (r *SongRepository) AverageDifficulty(ctx context.Context, level *int) (float64, error) {
	pipeline := mongo.Pipeline{}

	if level != nil {
		pipeline = append(pipeline, bson.D{
			{Key: "$match", Value: bson.D{{Key: "level", Value: *level}}},
		})
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "avg_difficulty", Value: bson.D{{Key: "$avg", Value: "$difficulty"}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "average_difficulty", Value: bson.D{
				{Key: "$round", Value: bson.A{"$avg_difficulty", 2}},
			}},
		}}},
	)

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("aggregate difficulty: %w", err)
	}

	var results []struct {
		AverageDifficulty float64 `bson:"average_difficulty"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("decode difficulty aggregation: %w", err)
	}
	if len(results) == 0 {
		return 0, ErrNoSongs
	}

	return results[0].AverageDifficulty, nil
}

// Search runs a $text query over title and artist. The text index is
// ensured first; index creation with an unchanged specification is
// idempotent, so repeat calls are harmless.
func (r *SongRepository) Search(ctx context.Context, message string) ([]model.Song, error) {
	if err := r.EnsureSearchIndex(ctx); err != nil {
		return nil, err
	}

	filter := bson.D{{Key: "$text", Value: bson.D{{Key: "$search", Value: message}}}}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search songs: %w", err)
	}

	songs := []model.Song{}
	if err := cursor.All(ctx, &songs); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	return songs, nil
}

// EnsureSearchIndex creates the text index used by Search if it does not
// exist yet.
func (r *SongRepository) EnsureSearchIndex(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "title", Value: "text"},
			{Key: "artist", Value: "text"},
		},
		Options: options.Index().SetName(searchIndexName),
	})
	if err != nil {
		return fmt.Errorf("ensure search index: %w", err)
	}
	return nil
}

// FindByID fetches one song by its identifier.
func (r *SongRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Song, error) {
	var song model.Song
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&song)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find song: %w", err)
	}
	return &song, nil
}

// PushRating atomically appends one rating to the song's ratings array and
// returns the updated document.
func (r *SongRepository) PushRating(ctx context.Context, id primitive.ObjectID, rating float64) (*model.Song, error) {
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "ratings", Value: rating}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var song model.Song
	err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&song)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("push rating: %w", err)
	}
	return &song, nil
}

// RatingStats computes the average (rounded to two decimals), minimum, and
// maximum of a song's ratings via an unwind/group pipeline.
func (r *SongRepository) RatingStats(ctx context.Context, id primitive.ObjectID) (*model.RatingStats, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "_id", Value: id}}}},
		bson.D{{Key: "$unwind", Value: "$ratings"}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$_id"},
			{Key: "avg_rating", Value: bson.D{{Key: "$avg", Value: "$ratings"}}},
			{Key: "min_rating", Value: bson.D{{Key: "$min", Value: "$ratings"}}},
			{Key: "max_rating", Value: bson.D{{Key: "$max", Value: "$ratings"}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "average_rating", Value: bson.D{
				{Key: "$round", Value: bson.A{"$avg_rating", 2}},
			}},
			{Key: "min_rating", Value: 1},
			{Key: "max_rating", Value: 1},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate ratings: %w", err)
	}

	var results []model.RatingStats
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode rating aggregation: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	return &results[0], nil
}

// Seed replaces the entire collection contents with the given songs and
// rebuilds the search index. Used by the fixture loader, never at request
// time.
func (r *SongRepository) Seed(ctx context.Context, songs []model.Song) error {
	if err := r.coll.Drop(ctx); err != nil {
		return fmt.Errorf("drop songs collection: %w", err)
	}

	docs := make([]interface{}, len(songs))
	for i := range songs {
		docs[i] = songs[i]
	}

	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert songs: %w", err)
	}

	return r.EnsureSearchIndex(ctx)
}
