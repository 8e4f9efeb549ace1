// Package dashboard aggregates recent sales for the back-office summary.
package dashboard

import (
	"context"
	"time"

	"posledger/internal/core/types"
)

// DailyCount is the number of sales registered on one calendar day.
type DailyCount struct {
	Day   time.Time `db:"day"`
	Count int64     `db:"count"`
}

// Repository exposes the read-side aggregates the summary is built from.
type Repository interface {
	// LatestSaleTime returns the registration time of the newest sale;
	// ok is false when no sale exists.
	LatestSaleTime(ctx context.Context) (t time.Time, ok bool, err error)

	// SalesSince counts sales registered at or after since and sums their totals.
	SalesSince(ctx context.Context, since time.Time) (count int64, revenue types.Money, err error)

	// DailySalesSince groups sales registered at or after since by calendar
	// day, oldest day first.
	DailySalesSince(ctx context.Context, since time.Time) ([]DailyCount, error)

	// CountProducts returns the number of products in the catalog.
	CountProducts(ctx context.Context) (int64, error)
}
