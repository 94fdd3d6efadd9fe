// Package errs defines the error type returned to API clients.
//
// Every client-visible failure is an HTTPError carrying a status code and a
// message, serialized as a single-key JSON body: {"error": <message>}.
package errs
