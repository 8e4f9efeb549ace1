package sales_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posledger/internal/core/apperror"
	"posledger/internal/core/types"
	"posledger/internal/domain/catalog"
	"posledger/internal/domain/sales"
	"posledger/internal/infrastructure/storage/memory"
)

func seedSales(t *testing.T, st *memory.Store, at ...time.Time) {
	t.Helper()
	err := st.RunInTransaction(context.Background(), func(ctx context.Context) error {
		p := &catalog.Product{Name: "Cola", Stock: 100}
		if err := st.Products().Create(ctx, p); err != nil {
			return err
		}
		for i, ts := range at {
			err := st.Sales().Create(ctx, &sales.Sale{
				DocumentNumber: string(rune('A' + i)),
				RegisteredAt:   ts,
				Total:          types.MustMoney("1.50"),
				Lines: []sales.SaleLine{{
					LineNo: 1, ProductID: p.ID, Quantity: 1,
					UnitPrice: types.MustMoney("1.50"), Subtotal: types.MustMoney("1.50"),
				}},
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func day(d, h int) time.Time {
	return time.Date(2026, 3, d, h, 0, 0, 0, time.UTC)
}

func TestHistory_ByDateIsInclusive(t *testing.T) {
	st := memory.New()
	seedSales(t, st, day(1, 0), day(2, 23), day(3, 0), day(4, 12))
	q := sales.NewQueryService(st.Sales())

	got, err := q.History(context.Background(), sales.HistoryFilter{
		SearchBy: sales.SearchByDate, From: day(2, 15), To: day(3, 8),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].DocumentNumber)
	assert.Equal(t, "C", got[1].DocumentNumber)
	assert.Equal(t, "Cola", got[0].Lines[0].ProductName)

	got, err = q.History(context.Background(), sales.HistoryFilter{
		SearchBy: sales.SearchByDate, From: day(4, 0), To: day(4, 0),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "D", got[0].DocumentNumber)
}

func TestHistory_ByNumber(t *testing.T) {
	st := memory.New()
	seedSales(t, st, day(1, 9))
	q := sales.NewQueryService(st.Sales())

	got, err := q.History(context.Background(), sales.HistoryFilter{SearchBy: sales.SearchByNumber, Number: " A "})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = q.History(context.Background(), sales.HistoryFilter{SearchBy: sales.SearchByNumber, Number: "Z"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestHistory_InvalidFilter(t *testing.T) {
	q := sales.NewQueryService(memory.New().Sales())
	ctx := context.Background()

	tests := []struct {
		name string
		f    sales.HistoryFilter
	}{
		{"unknown mode", sales.HistoryFilter{SearchBy: "client"}},
		{"empty number", sales.HistoryFilter{SearchBy: sales.SearchByNumber}},
		{"missing dates", sales.HistoryFilter{SearchBy: sales.SearchByDate, From: day(1, 0)}},
		{"reversed dates", sales.HistoryFilter{SearchBy: sales.SearchByDate, From: day(3, 0), To: day(1, 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := q.History(ctx, tt.f)
			assert.True(t, apperror.IsValidation(err))
		})
	}
}

func TestReport(t *testing.T) {
	st := memory.New()
	seedSales(t, st, day(1, 9), day(5, 9))
	q := sales.NewQueryService(st.Sales())

	rows, err := q.Report(context.Background(), day(1, 0), day(2, 0))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].DocumentNumber)
	assert.Equal(t, "Cola", rows[0].ProductName)
	assert.Equal(t, "1.50", rows[0].SaleTotal.StringFixed(2))

	rows, err = q.Report(context.Background(), day(10, 0), day(11, 0))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestHistory_MalformedNumber(t *testing.T) {
	st := memory.New()
	seedSales(t, st, day(1, 9))
	q := sales.NewQueryService(st.Sales(), sales.WithNumberFormat(func(n string) bool { return n == "A" }))

	got, err := q.History(context.Background(), sales.HistoryFilter{SearchBy: sales.SearchByNumber, Number: " A "})
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = q.History(context.Background(), sales.HistoryFilter{SearchBy: sales.SearchByNumber, Number: "A-1"})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
}
