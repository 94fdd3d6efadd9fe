package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tunelab/songbook/internal/middleware"
	"github.com/tunelab/songbook/internal/server"
	"github.com/tunelab/songbook/internal/validation"
)

// Handler is the base handler type that holds shared application
// dependencies. Concrete handlers embed it to reach config, logger, and
// store handles via *server.Server.
type Handler struct {
	server *server.Server
}

// NewHandler constructs a base Handler.
func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc is a typed endpoint function that receives a bound and
// validated request payload and returns a response value or an error.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// validatablePtr constrains Req to a pointer to a payload struct, so the
// pipeline can allocate a fresh instance per request. Reusing one payload
// across requests would race under concurrent handling.
type validatablePtr[T any] interface {
	*T
	validation.Validatable
}

// ResponseHandler defines how a successful handler result is written to
// the HTTP response.
type ResponseHandler interface {
	Handle(c echo.Context, result interface{}) error

	// GetOperation returns an operation name used for structured logging.
	GetOperation() string
}

// JSONResponseHandler writes JSON responses with a fixed status code.
type JSONResponseHandler struct {
	status int
}

func (h JSONResponseHandler) Handle(c echo.Context, result interface{}) error {
	return c.JSON(h.status, result)
}

func (h JSONResponseHandler) GetOperation() string {
	return "handler"
}

// handleRequest is the shared execution pipeline for all endpoints:
// binding + validation, structured logging with timings, handler execution,
// and response writing. Errors bubble up to the global error handler.
func handleRequest[Req validation.Validatable](
	c echo.Context,
	req Req,
	handler func(c echo.Context, req Req) (interface{}, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("method", c.Request().Method).
		Str("route", c.Path()).
		Logger()

	validationStart := time.Now()
	if err := validation.BindAndValidate(c, req); err != nil {
		logger.Warn().
			Err(err).
			Dur("validation_duration", time.Since(validationStart)).
			Msg("request validation failed")
		return err
	}
	validationDuration := time.Since(validationStart)

	handlerStart := time.Now()
	result, err := handler(c, req)
	handlerDuration := time.Since(handlerStart)

	if err != nil {
		logger.Warn().
			Err(err).
			Dur("handler_duration", handlerDuration).
			Dur("total_duration", time.Since(start)).
			Msg("handler execution failed")
		return err
	}

	logger.Debug().
		Dur("validation_duration", validationDuration).
		Dur("handler_duration", handlerDuration).
		Dur("total_duration", time.Since(start)).
		Msg("request completed")

	return responseHandler.Handle(c, result)
}

// Handle wraps a typed endpoint function into an echo.HandlerFunc with
// validation, logging, and JSON response writing. A fresh request payload
// is allocated per request.
func Handle[Req any, PReq validatablePtr[Req], Res any](
	h Handler,
	handler HandlerFunc[PReq, Res],
	status int,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := PReq(new(Req))
		return handleRequest(c, req, func(c echo.Context, req PReq) (interface{}, error) {
			return handler(c, req)
		}, JSONResponseHandler{status: status})
	}
}
