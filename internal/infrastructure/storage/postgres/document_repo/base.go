// Package document_repo provides PostgreSQL repositories for document
// headers (sales) and their lines.
package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"posledger/internal/core/apperror"
	"posledger/internal/domain"
	"posledger/internal/infrastructure/storage/postgres"
)

// BaseDocumentRepo provides the header-table operations shared by documents:
// insert with a store-assigned id, lookup by document number and listing by
// registration time.
type BaseDocumentRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	numberCol  string
	dateCol    string
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T any](
	txManager *postgres.TxManager,
	tableName, entityName string,
	selectCols []string,
) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		entityName: entityName,
		selectCols: selectCols,
		numberCol:  "document_number",
		dateCol:    "registered_at",
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T]) insertQuery(entity *T) squirrel.InsertBuilder {
	return r.Builder().
		Insert(r.tableName).
		SetMap(postgres.StructToMap(entity, "id")).
		Suffix("RETURNING id")
}

// Insert writes the header and returns the store-assigned id.
// Must run inside a transaction.
func (r *BaseDocumentRepo[T]) Insert(ctx context.Context, entity *T) (int64, error) {
	q, err := r.txManager.TxQuerier(ctx)
	if err != nil {
		return 0, err
	}

	sql, args, err := r.insertQuery(entity).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	var id int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, postgres.WrapError("insert "+r.tableName, err)
	}
	return id, nil
}

// baseSelect creates a SELECT builder.
func (r *BaseDocumentRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByNumber retrieves a document by its document number.
func (r *BaseDocumentRepo[T]) GetByNumber(ctx context.Context, number string) (*T, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{r.numberCol: number}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entity T
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.entityName, number)
		}
		return nil, postgres.WrapError("get "+r.entityName+" by number", err)
	}
	return &entity, nil
}

func (r *BaseDocumentRepo[T]) rangeQuery(rng domain.DateRange, orderBy string) (squirrel.SelectBuilder, error) {
	order, err := r.parseOrderBy(orderBy)
	if err != nil {
		return squirrel.SelectBuilder{}, err
	}
	return r.baseSelect().
		Where(squirrel.GtOrEq{r.dateCol: rng.From}).
		Where(squirrel.Lt{r.dateCol: rng.To}).
		OrderBy(order, "id ASC"), nil
}

// ListByDateRange retrieves documents registered within rng.
// orderBy is a column name with an optional "-" prefix for descending order.
func (r *BaseDocumentRepo[T]) ListByDateRange(ctx context.Context, rng domain.DateRange, orderBy string) ([]*T, error) {
	q, err := r.rangeQuery(rng, orderBy)
	if err != nil {
		return nil, err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*T
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, postgres.WrapError("list "+r.tableName, err)
	}
	return items, nil
}

func (r *BaseDocumentRepo[T]) parseOrderBy(orderBy string) (string, error) {
	allowed := make(map[string]struct{}, len(r.selectCols))
	for _, col := range r.selectCols {
		allowed[col] = struct{}{}
	}

	if strings.TrimSpace(orderBy) == "" {
		return r.dateCol + " ASC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if _, ok := allowed[field]; !ok || field == "" {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}

	return field + " " + direction, nil
}
