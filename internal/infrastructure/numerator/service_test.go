package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posledger/internal/core/apperror"
	corenumerator "posledger/internal/core/numerator"
	"posledger/internal/core/tx"
	"posledger/internal/infrastructure/storage/postgres"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the doc_sequence row.
type mockQuerier struct {
	mu      sync.Mutex
	exists  bool
	current int64
	lastAt  time.Time
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exists = true
	m.current = args[1].(int64)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.exists {
		return &mockRow{err: pgx.ErrNoRows}
	}
	if len(args) == 2 {
		m.current++
		m.lastAt = args[0].(time.Time)
	}
	return &mockRow{val: m.current}
}

// mockSource hands out the querier only "inside a transaction".
type mockSource struct {
	q    *mockQuerier
	inTx bool
}

func (s *mockSource) TxQuerier(ctx context.Context) (postgres.Querier, error) {
	if !s.inTx {
		return nil, apperror.NewInternal(tx.ErrNoTransaction)
	}
	return s.q, nil
}

func (s *mockSource) GetQuerier(ctx context.Context) postgres.Querier { return s.q }

func TestService_Next(t *testing.T) {
	q := &mockQuerier{exists: true, current: 7}
	svc := New(NewPostgresCounter(&mockSource{q: q, inTx: true}), corenumerator.DefaultConfig())
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	num, err := svc.Next(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, "0008", num)
	assert.Equal(t, at, q.lastAt)

	num, err = svc.Next(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, "0009", num)
}

func TestService_Next_Concurrent(t *testing.T) {
	q := &mockQuerier{exists: true}
	svc := New(NewPostgresCounter(&mockSource{q: q, inTx: true}), corenumerator.DefaultConfig())
	ctx := context.Background()

	const n = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]bool, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.Next(ctx, time.Now())
			assert.NoError(t, err)
			mu.Lock()
			results[num] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, results, n)
	assert.True(t, results["0001"])
	assert.True(t, results["0050"])
}

func TestService_Next_RequiresTransaction(t *testing.T) {
	q := &mockQuerier{exists: true, current: 3}
	svc := New(NewPostgresCounter(&mockSource{q: q}), corenumerator.DefaultConfig())

	_, err := svc.Next(context.Background(), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, tx.ErrNoTransaction)
	assert.Equal(t, int64(3), q.current)
}

func TestService_Next_MissingRow(t *testing.T) {
	svc := New(NewPostgresCounter(&mockSource{q: &mockQuerier{}, inTx: true}), corenumerator.DefaultConfig())

	_, err := svc.Next(context.Background(), time.Now())
	assert.True(t, apperror.IsSequenceMissing(err))

	assert.True(t, apperror.IsSequenceMissing(svc.Verify(context.Background())))
}

func TestService_Next_OverflowFail(t *testing.T) {
	q := &mockQuerier{exists: true, current: 9999}
	cfg := corenumerator.Config{PadWidth: 4, Overflow: corenumerator.OverflowFail}
	svc := New(NewPostgresCounter(&mockSource{q: q, inTx: true}), cfg)

	_, err := svc.Next(context.Background(), time.Now())
	assert.Equal(t, apperror.CodeSequenceOverflow, apperror.CodeOf(err))
}

func TestPostgresCounter_Reset(t *testing.T) {
	q := &mockQuerier{}
	c := NewPostgresCounter(&mockSource{q: q, inTx: true})
	ctx := context.Background()

	require.NoError(t, c.Reset(ctx, 41))
	n, err := c.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(41), n)

	assert.True(t, apperror.IsValidation(c.Reset(ctx, -1)))
}

func TestParseNumber(t *testing.T) {
	cfg := corenumerator.Config{Prefix: "S-", PadWidth: 4}

	assert.Equal(t, int64(8), ParseNumber(cfg, "S-0008"))
	assert.Equal(t, int64(12345), ParseNumber(cfg, "S-12345"))
	assert.Equal(t, int64(-1), ParseNumber(cfg, "X-0008"))
	assert.Equal(t, int64(-1), ParseNumber(cfg, "S-00a8"))
	assert.Equal(t, int64(-1), ParseNumber(cfg, "S-"))
	assert.Equal(t, int64(-1), ParseNumber(cfg, "S--008"))
	assert.Equal(t, int64(-1), ParseNumber(cfg, "S-+008"))
}

func TestService_Valid(t *testing.T) {
	svc := New(nil, corenumerator.Config{Prefix: "S-", PadWidth: 4})

	assert.True(t, svc.Valid("S-0042"))
	assert.False(t, svc.Valid("0042"))
	assert.False(t, svc.Valid("S-00 42"))
}
