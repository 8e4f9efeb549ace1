// Package report_repo provides PostgreSQL implementations of the read-side
// aggregates behind the dashboard.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"posledger/internal/core/types"
	"posledger/internal/domain/dashboard"
	"posledger/internal/infrastructure/storage/postgres"
)

var _ dashboard.Repository = (*DashboardRepo)(nil)

// DashboardRepo implements dashboard.Repository.
type DashboardRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewDashboardRepo creates a new dashboard repository.
func NewDashboardRepo(txManager *postgres.TxManager) *DashboardRepo {
	return &DashboardRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// LatestSaleTime implements dashboard.Repository.
func (r *DashboardRepo) LatestSaleTime(ctx context.Context) (time.Time, bool, error) {
	sql, args, err := r.builder.
		Select("MAX(registered_at)").
		From(postgres.TableSales).
		ToSql()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("build query: %w", err)
	}

	var latest *time.Time
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&latest); err != nil {
		return time.Time{}, false, postgres.WrapError("latest sale time", err)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return latest.UTC(), true, nil
}

func (r *DashboardRepo) salesSinceQuery(since time.Time) squirrel.SelectBuilder {
	return r.builder.
		Select("COUNT(*)", "COALESCE(SUM(total), 0)").
		From(postgres.TableSales).
		Where(squirrel.GtOrEq{"registered_at": since})
}

// SalesSince implements dashboard.Repository.
func (r *DashboardRepo) SalesSince(ctx context.Context, since time.Time) (int64, types.Money, error) {
	sql, args, err := r.salesSinceQuery(since).ToSql()
	if err != nil {
		return 0, types.Zero(), fmt.Errorf("build query: %w", err)
	}

	var (
		count   int64
		revenue types.Money
	)
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&count, &revenue); err != nil {
		return 0, types.Zero(), postgres.WrapError("sales since", err)
	}
	return count, revenue, nil
}

// Days are cut in UTC, matching how registration times are stored.
func (r *DashboardRepo) dailySalesQuery(since time.Time) squirrel.SelectBuilder {
	return r.builder.
		Select("(registered_at AT TIME ZONE 'UTC')::date AS day", "COUNT(*) AS count").
		From(postgres.TableSales).
		Where(squirrel.GtOrEq{"registered_at": since}).
		GroupBy("day").
		OrderBy("day")
}

// DailySalesSince implements dashboard.Repository.
func (r *DashboardRepo) DailySalesSince(ctx context.Context, since time.Time) ([]dashboard.DailyCount, error) {
	sql, args, err := r.dailySalesQuery(since).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	out := []dashboard.DailyCount{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, postgres.WrapError("daily sales", err)
	}
	return out, nil
}

// CountProducts implements dashboard.Repository.
func (r *DashboardRepo) CountProducts(ctx context.Context) (int64, error) {
	sql, args, err := r.builder.Select("COUNT(*)").From(postgres.TableProducts).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var n int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, postgres.WrapError("count products", err)
	}
	return n, nil
}
