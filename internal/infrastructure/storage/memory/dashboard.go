package memory

import (
	"context"
	"sort"
	"time"

	"posledger/internal/core/types"
	"posledger/internal/domain"
	"posledger/internal/domain/dashboard"
)

var _ dashboard.Repository = (*DashboardRepo)(nil)

// DashboardRepo implements dashboard.Repository.
type DashboardRepo struct {
	store *Store
}

// LatestSaleTime implements dashboard.Repository.
func (r *DashboardRepo) LatestSaleTime(ctx context.Context) (time.Time, bool, error) {
	var (
		latest time.Time
		ok     bool
	)
	err := r.store.read(ctx, func(st *State) error {
		for _, sale := range st.Sales {
			if !ok || sale.RegisteredAt.After(latest) {
				latest, ok = sale.RegisteredAt, true
			}
		}
		return nil
	})
	return latest.UTC(), ok, err
}

// SalesSince implements dashboard.Repository.
func (r *DashboardRepo) SalesSince(ctx context.Context, since time.Time) (int64, types.Money, error) {
	var (
		count  int64
		totals []types.Money
	)
	err := r.store.read(ctx, func(st *State) error {
		for _, sale := range st.Sales {
			if !sale.RegisteredAt.Before(since) {
				count++
				totals = append(totals, sale.Total)
			}
		}
		return nil
	})
	return count, types.Sum(totals...), err
}

// DailySalesSince implements dashboard.Repository. Days are cut in UTC.
func (r *DashboardRepo) DailySalesSince(ctx context.Context, since time.Time) ([]dashboard.DailyCount, error) {
	out := []dashboard.DailyCount{}
	err := r.store.read(ctx, func(st *State) error {
		counts := make(map[time.Time]int64)
		for _, sale := range st.Sales {
			if !sale.RegisteredAt.Before(since) {
				counts[domain.StartOfDay(sale.RegisteredAt.UTC())]++
			}
		}
		for day, n := range counts {
			out = append(out, dashboard.DailyCount{Day: day, Count: n})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, err
}

// CountProducts implements dashboard.Repository.
func (r *DashboardRepo) CountProducts(ctx context.Context) (int64, error) {
	return r.store.Products().Count(ctx)
}
