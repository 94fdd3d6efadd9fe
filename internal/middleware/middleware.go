// Package middleware wires the HTTP middleware chain: request correlation,
// request-scoped logging, CORS/recovery/secure headers, rate limiting, and
// the global error handler that shapes every failure into {"error": msg}.
package middleware
