package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Song is a single document in the songs collection.
//
// Ratings is append-only: the only write path is the rating-submission
// endpoint, which pushes one value onto the array. A song seeded without
// ratings has no `ratings` field at all, which is why the slice is
// omitempty on both tags.
type Song struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title      string             `bson:"title" json:"title"`
	Artist     string             `bson:"artist" json:"artist"`
	Difficulty float64            `bson:"difficulty" json:"difficulty"`
	Level      int                `bson:"level" json:"level"`
	Released   string             `bson:"released" json:"released"`
	Ratings    []float64          `bson:"ratings,omitempty" json:"ratings,omitempty"`
}

// HasRatings reports whether at least one rating has been submitted.
func (s *Song) HasRatings() bool {
	return len(s.Ratings) > 0
}

// RatingStats holds the aggregate rating values for one song, as produced
// by the $unwind/$group pipeline. AverageRating is rounded to two decimal
// places server-side.
type RatingStats struct {
	AverageRating float64 `bson:"average_rating" json:"average_rating"`
	MinRating     float64 `bson:"min_rating" json:"min_rating"`
	MaxRating     float64 `bson:"max_rating" json:"max_rating"`
}
