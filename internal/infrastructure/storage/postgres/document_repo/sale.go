package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"posledger/internal/domain"
	"posledger/internal/domain/sales"
	"posledger/internal/infrastructure/storage/postgres"
)

var (
	saleColumns     = postgres.ExtractDBColumns[sales.Sale]()
	saleLineColumns = postgres.ExtractDBColumns[sales.SaleLine]("id", "product_name")
)

// Compile-time interface check.
var _ sales.Repository = (*SaleRepo)(nil)

// SaleRepo stores sale aggregates in the sales and sale_lines tables.
type SaleRepo struct {
	*BaseDocumentRepo[sales.Sale]
}

// NewSaleRepo creates a sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[sales.Sale](txManager, postgres.TableSales, "sale", saleColumns),
	}
}

// Create inserts the header, then all lines in one multi-row INSERT, and
// assigns the store IDs back onto s.
func (r *SaleRepo) Create(ctx context.Context, s *sales.Sale) error {
	saleID, err := r.Insert(ctx, s)
	if err != nil {
		return err
	}
	s.ID = saleID
	for i := range s.Lines {
		s.Lines[i].SaleID = saleID
	}

	q, err := r.txManager.TxQuerier(ctx)
	if err != nil {
		return err
	}

	sql, args, err := r.insertLinesQuery(s.Lines).ToSql()
	if err != nil {
		return fmt.Errorf("build lines insert: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return postgres.WrapError("insert sale lines", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return postgres.WrapError("insert sale lines", err)
	}
	if len(ids) != len(s.Lines) {
		return postgres.WrapError("insert sale lines", fmt.Errorf("inserted %d of %d lines", len(ids), len(s.Lines)))
	}
	for i := range s.Lines {
		s.Lines[i].ID = ids[i]
	}

	return nil
}

// insertLinesQuery returns ids in line order: RETURNING follows VALUES order
// for a single INSERT.
func (r *SaleRepo) insertLinesQuery(lines []sales.SaleLine) squirrel.InsertBuilder {
	q := r.Builder().
		Insert(postgres.TableSaleLines).
		Columns(saleLineColumns...)
	for i := range lines {
		m := postgres.StructToMap(&lines[i], "id", "product_name")
		values := make([]any, len(saleLineColumns))
		for j, col := range saleLineColumns {
			values[j] = m[col]
		}
		q = q.Values(values...)
	}
	return q.Suffix("RETURNING id")
}

// GetByNumber returns the sale with its lines.
func (r *SaleRepo) GetByNumber(ctx context.Context, number string) (*sales.Sale, error) {
	s, err := r.BaseDocumentRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, []*sales.Sale{s}); err != nil {
		return nil, err
	}
	return s, nil
}

// ListByDateRange returns sales within rng, oldest first, with lines.
func (r *SaleRepo) ListByDateRange(ctx context.Context, rng domain.DateRange) ([]*sales.Sale, error) {
	items, err := r.BaseDocumentRepo.ListByDateRange(ctx, rng, "registered_at")
	if err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []*sales.Sale{}
	}
	return items, nil
}

func (r *SaleRepo) linesQuery(saleIDs []int64) squirrel.SelectBuilder {
	return r.Builder().
		Select(
			"sl.id", "sl.sale_id", "sl.line_no", "sl.product_id", "p.name AS product_name",
			"sl.quantity", "sl.unit_price", "sl.subtotal",
		).
		From(postgres.TableSaleLines + " sl").
		Join(postgres.TableProducts + " p ON p.id = sl.product_id").
		Where("sl.sale_id = ANY(?)", saleIDs).
		OrderBy("sl.sale_id", "sl.line_no")
}

// attachLines loads lines for all given sales with one query.
// Lines commit together with their header, so every header read here has
// its full set of lines.
func (r *SaleRepo) attachLines(ctx context.Context, items []*sales.Sale) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]int64, len(items))
	byID := make(map[int64]*sales.Sale, len(items))
	for i, s := range items {
		ids[i] = s.ID
		byID[s.ID] = s
		s.Lines = []sales.SaleLine{}
	}

	sql, args, err := r.linesQuery(ids).ToSql()
	if err != nil {
		return fmt.Errorf("build lines query: %w", err)
	}

	var lines []sales.SaleLine
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return postgres.WrapError("select sale lines", err)
	}
	for _, l := range lines {
		if s, ok := byID[l.SaleID]; ok {
			s.Lines = append(s.Lines, l)
		}
	}
	return nil
}

func (r *SaleRepo) reportQuery(rng domain.DateRange) squirrel.SelectBuilder {
	return r.Builder().
		Select(
			"s.id AS sale_id", "s.document_number", "s.registered_at", "s.payment_type",
			"s.total AS sale_total", "sl.product_id", "p.name AS product_name",
			"sl.quantity", "sl.unit_price", "sl.subtotal",
		).
		From(postgres.TableSales + " s").
		Join(postgres.TableSaleLines + " sl ON sl.sale_id = s.id").
		Join(postgres.TableProducts + " p ON p.id = sl.product_id").
		Where(squirrel.GtOrEq{"s.registered_at": rng.From}).
		Where(squirrel.Lt{"s.registered_at": rng.To}).
		OrderBy("s.registered_at", "s.id", "sl.line_no")
}

// ReportLines returns one row per sold line within rng.
func (r *SaleRepo) ReportLines(ctx context.Context, rng domain.DateRange) ([]sales.ReportLine, error) {
	sql, args, err := r.reportQuery(rng).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build report query: %w", err)
	}

	out := []sales.ReportLine{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, postgres.WrapError("select sale report", err)
	}
	return out, nil
}
