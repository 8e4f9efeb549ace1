package numerator

import (
	"context"
	"time"

	"posledger/internal/core/apperror"
	corenumerator "posledger/internal/core/numerator"
	"posledger/internal/infrastructure/storage/postgres"
)

var _ corenumerator.Counter = (*PostgresCounter)(nil)

// Source supplies queriers; *postgres.TxManager satisfies it.
type Source interface {
	TxQuerier(ctx context.Context) (postgres.Querier, error)
	GetQuerier(ctx context.Context) postgres.Querier
}

// PostgresCounter keeps the counter in the doc_sequence row.
type PostgresCounter struct {
	db Source
}

// NewPostgresCounter creates a counter over db.
func NewPostgresCounter(db Source) *PostgresCounter {
	return &PostgresCounter{db: db}
}

// Increment implements corenumerator.Counter.
// UPDATE takes the row lock, so concurrent registrations queue here until
// the holder commits or rolls back.
func (c *PostgresCounter) Increment(ctx context.Context, at time.Time) (int64, error) {
	q, err := c.db.TxQuerier(ctx)
	if err != nil {
		return 0, err
	}

	var num int64
	err = q.QueryRow(ctx, `
		UPDATE doc_sequence
		SET last_number = last_number + 1, last_registered_at = $1
		WHERE id = $2
		RETURNING last_number
	`, at, postgres.DocSequenceRowKey).Scan(&num)
	if err != nil {
		if postgres.IsNoRows(err) {
			return 0, apperror.NewSequenceMissing()
		}
		return 0, postgres.WrapError("increment sequence", err)
	}
	return num, nil
}

// Current implements corenumerator.Counter.
func (c *PostgresCounter) Current(ctx context.Context) (int64, error) {
	var num int64
	err := c.db.GetQuerier(ctx).QueryRow(ctx,
		`SELECT last_number FROM doc_sequence WHERE id = $1`,
		postgres.DocSequenceRowKey,
	).Scan(&num)
	if err != nil {
		if postgres.IsNoRows(err) {
			return 0, apperror.NewSequenceMissing()
		}
		return 0, postgres.WrapError("read sequence", err)
	}
	return num, nil
}

// Reset implements corenumerator.Counter (for seeding and migration).
func (c *PostgresCounter) Reset(ctx context.Context, value int64) error {
	if value < 0 {
		return apperror.NewValidation("sequence value must not be negative")
	}
	q, err := c.db.TxQuerier(ctx)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO doc_sequence (id, last_number)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET last_number = $2
	`, postgres.DocSequenceRowKey, value)
	if err != nil {
		return postgres.WrapError("reset sequence", err)
	}
	return nil
}
