package storeerr

import (
	"context"
	"errors"

	"github.com/tunelab/songbook/internal/errs"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleError converts a store-layer error into an *errs.HTTPError.
//
// Already-translated HTTPErrors pass through untouched. Anything the driver
// reports that maps to a client condition becomes a 4xx; the rest collapses
// into a generic 500 so no driver internals leak to clients.
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return errs.NewNotFoundError("Resource not found")

	case mongo.IsDuplicateKeyError(err):
		return errs.NewBadRequestError("Resource already exists")

	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err):
		return errs.NewInternalServerError()

	default:
		return errs.NewInternalServerError()
	}
}
