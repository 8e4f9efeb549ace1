// Package numerator provides domain contracts for document auto-numbering.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
	"time"
)

// Generator issues sale document numbers.
// This is the domain contract - implementations live in infrastructure layer.
type Generator interface {
	// Next increments the shared counter by exactly one inside the
	// transaction carried by ctx, stamps the row with at and returns the
	// formatted number. The caller's rollback discards the increment.
	Next(ctx context.Context, at time.Time) (string, error)
}

// Counter is the store-side half of the sequence: a single row holding the
// last issued value and the time it was issued.
type Counter interface {
	// Increment adds one to the counter, stamps it with at and returns the
	// new value. Must run inside a transaction; the row stays locked until
	// that transaction ends. A missing row is SEQUENCE_MISSING.
	Increment(ctx context.Context, at time.Time) (int64, error)

	// Current returns the last issued value without changing it.
	Current(ctx context.Context) (int64, error)

	// Reset sets the counter (creating the row if needed). Used by seeding
	// and data migration, never by registration.
	Reset(ctx context.Context, value int64) error
}
