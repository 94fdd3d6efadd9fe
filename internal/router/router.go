// Package router initializes the HTTP router (using echo).
//
// It registers the middleware chain and maps paths to their handlers.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/tunelab/songbook/internal/handler"
	"github.com/tunelab/songbook/internal/middleware"
	"github.com/tunelab/songbook/internal/server"
)

// New builds the echo instance with the full middleware chain and all
// routes registered.
//
// Order matters: RequestID must run before the context enhancer so the
// request-scoped logger carries the correlation ID, and the rate limiter
// runs after logging so throttled requests still produce a log line.
func New(s *server.Server, h *handler.Handlers, mw *middleware.Middlewares) *echo.Echo {
	r := echo.New()
	r.HideBanner = true
	r.HidePort = true

	r.HTTPErrorHandler = mw.Global.GlobalErrorHandler

	r.Use(mw.Global.Recover())
	r.Use(middleware.RequestID())
	r.Use(mw.ContextEnhancer.EnhanceContext())
	r.Use(mw.Global.RequestLogger())
	r.Use(mw.Global.CORS())
	r.Use(mw.Global.Secure())
	r.Use(mw.RateLimit.Limit())

	registerSongRoutes(r, h)
	registerSystemRoutes(r, h)

	return r
}
