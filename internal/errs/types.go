package errs

// HTTPError is the error shape for all non-2xx API responses.
//
// The status code travels on the error but is not part of the body; clients
// only ever see {"error": <message>}.
type HTTPError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

// Error makes *HTTPError satisfy the error interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// Is lets errors.Is match any *HTTPError regardless of status or message.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of the error with the message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Status:  e.Status,
		Message: message,
	}
}
