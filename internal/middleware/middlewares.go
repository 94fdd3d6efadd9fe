package middleware

import (
	"github.com/tunelab/songbook/internal/server"
)

// Middlewares is a lightweight container that groups all middleware
// components used by the HTTP server, built once and reused during router
// setup.
type Middlewares struct {
	// Global holds common middleware used across the whole API:
	// CORS, request logging, recovery, secure headers, and the global
	// error handler.
	Global *GlobalMiddlewares

	// ContextEnhancer enriches each request with a request-scoped logger
	// (request_id, method, path, ip).
	ContextEnhancer *ContextEnhancer

	// RateLimit enforces a per-IP fixed-window limit backed by Redis.
	RateLimit *RateLimitMiddleware
}

// NewMiddlewares constructs all middleware components using the application
// container.
func NewMiddlewares(s *server.Server) *Middlewares {
	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		ContextEnhancer: NewContextEnhancer(s),
		RateLimit:       NewRateLimitMiddleware(s),
	}
}
