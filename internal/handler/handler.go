// Package handler is the HTTP entry point after the router.
//
// It binds and validates requests through the validation package, calls the
// service layer, and shapes responses. Failures are returned as errors and
// formatted by the global error handler.
package handler
