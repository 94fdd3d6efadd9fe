// Package validation contains the logic for validating request data.
//
// Request payload types implement Validatable. Validation either succeeds or
// yields a *errs.HTTPError carrying the exact client-facing message, so the
// handler pipeline can return it straight to the global error handler.
package validation
