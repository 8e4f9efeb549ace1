package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// BatchInserter provides bulk insert through the COPY protocol.
// Used for loading product catalogs, where row-by-row INSERTs are slow.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice performs bulk insert from a slice of rows inside the
// transaction carried by ctx.
//
// Example:
//
//	n, err := inserter.CopyFromSlice(ctx, "products", []string{"name", "stock", "price"}, rows)
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if _, err := b.txManager.TxQuerier(ctx); err != nil {
		return 0, err
	}
	t := b.txManager.GetTx(ctx)

	n, err := t.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, WrapError("copy into "+table, err)
	}
	return n, nil
}
