// Package storeerr classifies errors coming out of the MongoDB driver.
//
// It is the last line of defense in the global error handler: driver errors
// that were not already translated by the service layer are converted into
// client-safe HTTPErrors here.
package storeerr
