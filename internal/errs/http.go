package errs

import "net/http"

// NewBadRequestError creates a 400 Bad Request HTTPError.
func NewBadRequestError(message string) *HTTPError {
	return &HTTPError{
		Status:  http.StatusBadRequest,
		Message: message,
	}
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string) *HTTPError {
	return &HTTPError{
		Status:  http.StatusNotFound,
		Message: message,
	}
}

// NewTooManyRequestsError creates a 429 Too Many Requests HTTPError.
func NewTooManyRequestsError(message string) *HTTPError {
	return &HTTPError{
		Status:  http.StatusTooManyRequests,
		Message: message,
	}
}

// NewInternalServerError creates a generic 500 HTTPError.
//
// The message is the bare status text: clients never see the underlying
// store or runtime fault.
func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Message: http.StatusText(http.StatusInternalServerError),
	}
}
