package validation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/tunelab/songbook/internal/errs"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Validatable is implemented by request payload types that know how to
// validate themselves.
//
// Validate is called after binding. Implementations return either a
// *errs.HTTPError with the exact client-facing message, or a
// validator.ValidationErrors from tag-based checks.
type Validatable interface {
	Validate() error
}

// BindAndValidate binds request data into payload and validates it.
//
// Binding failures and validation failures both surface as 400s. Payload
// must be a pointer so echo's Bind can populate it and Validate can store
// coerced values back on the struct.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := c.Bind(payload); err != nil {
		return errs.NewBadRequestError(bindErrorMessage(err))
	}

	if err := payload.Validate(); err != nil {
		var httpErr *errs.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		return errs.NewBadRequestError(extractValidationMessage(err))
	}

	return nil
}

// bindErrorMessage pulls a usable message out of echo's bind error without
// depending on its internal formatting.
func bindErrorMessage(err error) string {
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) && echoErr.Code == http.StatusBadRequest {
		if msg, ok := echoErr.Message.(string); ok {
			return msg
		}
	}
	return "Invalid request payload"
}

// extractValidationMessage flattens validator tag errors into one message.
func extractValidationMessage(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return "Validation failed"
	}

	parts := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		field := strings.ToLower(fieldErr.Field())

		var msg string
		switch fieldErr.Tag() {
		case "required":
			msg = fmt.Sprintf("'%s' parameter is required", field)
		case "min":
			msg = fmt.Sprintf("'%s' must be at least %s", field, fieldErr.Param())
		case "max":
			msg = fmt.Sprintf("'%s' must not exceed %s", field, fieldErr.Param())
		case "oneof":
			msg = fmt.Sprintf("'%s' must be one of: %s", field, fieldErr.Param())
		default:
			if fieldErr.Param() != "" {
				msg = fmt.Sprintf("'%s': %s:%s", field, fieldErr.Tag(), fieldErr.Param())
			} else {
				msg = fmt.Sprintf("'%s': %s", field, fieldErr.Tag())
			}
		}
		parts = append(parts, msg)
	}

	return strings.Join(parts, "; ")
}

// IsValidObjectID checks whether a string is a syntactically valid
// 24-hex-character document identifier.
func IsValidObjectID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
