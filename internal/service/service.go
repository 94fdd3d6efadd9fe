// Package service contains the business logic.
//
// It sits between the handler and repository layers: handlers hand it
// validated input, it runs the domain operation against the injected store,
// and it reports outcomes through sentinel errors the handlers translate
// into HTTP responses.
package service
