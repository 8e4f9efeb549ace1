package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posledger/internal/core/apperror"
	"posledger/internal/core/tx"
)

type fakeTx struct {
	pgx.Tx
	execs      []string
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	return pgconn.NewCommandTag("SET"), nil
}

func (t *fakeTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

type fakePool struct {
	Querier
	begins  int
	opts    []pgx.TxOptions
	tx      *fakeTx
	beginFn func() error
}

func (p *fakePool) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	if p.beginFn != nil {
		if err := p.beginFn(); err != nil {
			return nil, err
		}
	}
	p.begins++
	p.opts = append(p.opts, opts)
	return p.tx, nil
}

func newTestManager() (*TxManager, *fakePool) {
	pool := &fakePool{tx: &fakeTx{}}
	return &TxManager{pool: pool, options: DefaultTxOptions()}, pool
}

func TestRunInTransaction_Commit(t *testing.T) {
	m, pool := newTestManager()

	err := m.RunInTransaction(context.Background(), func(ctx context.Context) error {
		q, err := m.TxQuerier(ctx)
		require.NoError(t, err)
		assert.Same(t, pool.tx, q)
		return nil
	})

	require.NoError(t, err)
	assert.True(t, pool.tx.committed)
	assert.False(t, pool.tx.rolledBack)
	assert.Equal(t, []string{"SET LOCAL statement_timeout = '30000ms'"}, pool.tx.execs)
	assert.Equal(t, pgx.ReadCommitted, pool.opts[0].IsoLevel)
}

func TestRunInTransaction_RollbackOnError(t *testing.T) {
	m, pool := newTestManager()
	want := apperror.NewNotFound("product", int64(3))

	err := m.RunInTransaction(context.Background(), func(context.Context) error {
		return want
	})

	assert.Same(t, want, err)
	assert.True(t, pool.tx.rolledBack)
	assert.False(t, pool.tx.committed)
}

func TestRunInTransaction_RollbackOnPanic(t *testing.T) {
	m, pool := newTestManager()

	assert.PanicsWithValue(t, "boom", func() {
		_ = m.RunInTransaction(context.Background(), func(context.Context) error {
			panic("boom")
		})
	})
	assert.True(t, pool.tx.rolledBack)
	assert.False(t, pool.tx.committed)
}

func TestRunInTransaction_CancelledBeforeCommit(t *testing.T) {
	m, pool := newTestManager()
	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)

	err := m.RunInTransaction(ctx, func(context.Context) error {
		cancel()
		return nil
	})

	require.Error(t, err)
	assert.True(t, apperror.IsStorage(err))
	assert.True(t, pool.tx.rolledBack)
	assert.False(t, pool.tx.committed)
}

func TestRunInTransaction_NestedReuse(t *testing.T) {
	m, pool := newTestManager()

	err := m.RunInTransaction(context.Background(), func(ctx context.Context) error {
		return m.RunInTransaction(ctx, func(inner context.Context) error {
			assert.Same(t, m.GetTx(ctx), m.GetTx(inner))
			return nil
		})
	})

	require.NoError(t, err)
	assert.Equal(t, 1, pool.begins)
}

func TestRunInTransaction_BeginFailure(t *testing.T) {
	m, pool := newTestManager()
	pool.beginFn = func() error { return errors.New("too many connections") }

	called := false
	err := m.RunInTransaction(context.Background(), func(context.Context) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, apperror.CodeDatabase, apperror.CodeOf(err))
}

func TestRunInTransaction_CommitFailure(t *testing.T) {
	m, pool := newTestManager()
	pool.tx.commitErr = &pgconn.PgError{Code: PgSerializationFailure}

	err := m.RunInTransaction(context.Background(), func(context.Context) error { return nil })

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, PgSerializationFailure, appErr.Details["pg_code"])
}

func TestTxQuerier_RequiresTransaction(t *testing.T) {
	m, _ := newTestManager()

	_, err := m.TxQuerier(context.Background())

	assert.ErrorIs(t, err, tx.ErrNoTransaction)
}

func TestParseIsolation(t *testing.T) {
	lvl, err := ParseIsolation("serializable")
	require.NoError(t, err)
	assert.Equal(t, pgx.Serializable, lvl)

	_, err = ParseIsolation("snapshot")
	assert.Error(t, err)
}

func TestWrapError_StatementTimeout(t *testing.T) {
	err := WrapError("update doc_sequence", &pgconn.PgError{Code: PgQueryCanceled})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeTimeout, appErr.Code)
	assert.Equal(t, PgQueryCanceled, appErr.Details["pg_code"])
}
