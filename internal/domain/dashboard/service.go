package dashboard

import (
	"context"
	"fmt"
	"time"

	"posledger/internal/core/types"
	"posledger/internal/domain"
	"posledger/internal/domain/sales"
)

// WindowDays is how far back from the newest sale the summary looks.
const WindowDays = 7

// DayTotal is one point of the per-day sales series.
type DayTotal struct {
	Date  string `json:"date"`
	Total int64  `json:"total"`
}

// Summary is the dashboard payload.
type Summary struct {
	TotalSales    int64       `json:"totalSales"`
	TotalRevenue  types.Money `json:"totalRevenue"`
	TotalProducts int64       `json:"totalProducts"`
	SalesLastWeek []DayTotal  `json:"salesLastWeek"`
}

// Service builds the dashboard summary.
type Service struct {
	repo Repository
}

// NewService creates a dashboard service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// WindowStart is midnight of the day WindowDays before latest.
// The window is anchored on the newest sale, not on the wall clock.
func WindowStart(latest time.Time) time.Time {
	return domain.StartOfDay(latest.AddDate(0, 0, -WindowDays))
}

// Summary returns sale count, revenue and per-day counts for the window plus
// the catalog size. An empty store yields zeros and an empty series.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	products, err := s.repo.CountProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	out := &Summary{
		TotalRevenue:  types.Zero(),
		TotalProducts: products,
		SalesLastWeek: []DayTotal{},
	}

	latest, ok, err := s.repo.LatestSaleTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest sale: %w", err)
	}
	if !ok {
		return out, nil
	}
	since := WindowStart(latest)

	out.TotalSales, out.TotalRevenue, err = s.repo.SalesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("sales since %s: %w", since.Format(time.DateOnly), err)
	}

	days, err := s.repo.DailySalesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	for _, d := range days {
		out.SalesLastWeek = append(out.SalesLastWeek, DayTotal{
			Date:  d.Day.Format(sales.DateLayout),
			Total: d.Count,
		})
	}

	return out, nil
}
