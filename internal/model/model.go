// Package model defines the documents stored in the songs collection
// and the derived shapes produced by aggregation pipelines.
package model
