// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces; the Postgres and in-memory
// implementations live in infrastructure/storage.
package tx

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned by store operations that may only run inside
// an active transaction (stock decrement, sequence increment, sale insert).
var ErrNoTransaction = errors.New("operation requires an active transaction")

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK, and nested transaction support.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error or panics, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// The transaction handle travels in the ctx passed to fn. Nested calls
	// reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
