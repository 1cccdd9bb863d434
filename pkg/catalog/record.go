// Package catalog defines the anime catalog record and the persistence
// boundary shared by the fetcher, the stores and the HTTP service.
package catalog

import (
	"context"
	"errors"
)

// Common errors shared across the catalog packages.
var (
	// ErrThrottled is returned (wrapped) by a page fetcher when the upstream
	// answered with HTTP 429. It is the only error the pager recovers from.
	ErrThrottled = errors.New("upstream throttled request")

	// ErrUnsupportedStore is returned when a store connection string uses a
	// scheme no backend understands.
	ErrUnsupportedStore = errors.New("unsupported store scheme")
)

// Record is one normalized anime entry.
//
// JSON names match what the browser client has always consumed, so the
// served array stays wire compatible.
type Record struct {
	// ID is the upstream MyAnimeList id (mal_id). Identity of the record.
	ID int64 `json:"id"`

	// URL is the detail page on MyAnimeList.
	URL string `json:"url"`

	// ImageURL is the large JPG poster.
	ImageURL string `json:"large_image_url"`

	// Title is the English title, or the canonical title when the
	// upstream has no English localization.
	Title string `json:"title_english"`
}

// InsertStats summarizes a best-effort bulk insert.
type InsertStats struct {
	Inserted int
	Skipped  int
}

// Store is the persistence boundary for the cached catalog.
//
// A store is "populated" iff Count returns > 0. Records are only ever
// written by BulkInsert and never updated or deleted.
type Store interface {
	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// BulkInsert writes all records it can. Individual record failures
	// (duplicate id) are counted in InsertStats.Skipped and do not fail the
	// call; connectivity failures do.
	BulkInsert(ctx context.Context, records []Record) (InsertStats, error)

	// FindAll returns every record in storage order.
	FindAll(ctx context.Context) ([]Record, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
