// Package repository handles all interactions with the document store.
//
// It contains the MongoDB queries and aggregation pipelines, abstracting
// driver details away from the service layer.
package repository
