// Package catalog_repo provides the PostgreSQL product repository.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"posledger/internal/core/apperror"
	"posledger/internal/domain/catalog"
	"posledger/internal/infrastructure/storage/postgres"
)

var productColumns = postgres.ExtractDBColumns[catalog.Product]()

// Compile-time interface check.
var _ catalog.Repository = (*ProductRepo)(nil)

// ProductRepo stores products in the products table.
type ProductRepo struct {
	txManager *postgres.TxManager
}

// NewProductRepo creates a product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{txManager: txManager}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *ProductRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *ProductRepo) insertQuery(p *catalog.Product) squirrel.InsertBuilder {
	data := postgres.StructToMap(p, "id", "created_at")
	return r.Builder().
		Insert(postgres.TableProducts).
		SetMap(data).
		Suffix("RETURNING id, created_at")
}

// Create inserts a product and assigns its ID.
func (r *ProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	q, err := r.txManager.TxQuerier(ctx)
	if err != nil {
		return err
	}

	sql, args, err := r.insertQuery(p).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.CreatedAt); err != nil {
		return postgres.WrapError("insert product", err)
	}
	return nil
}

func (r *ProductRepo) getForUpdateQuery(id int64) squirrel.SelectBuilder {
	return r.Builder().
		Select(productColumns...).
		From(postgres.TableProducts).
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE")
}

// GetForUpdate loads the product and holds its row lock until the
// transaction ends; a concurrent sale of the same product waits here.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*catalog.Product, error) {
	q, err := r.txManager.TxQuerier(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.getForUpdateQuery(id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var p catalog.Product
	if err := pgxscan.Get(ctx, q, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", id)
		}
		return nil, postgres.WrapError("select product for update", err)
	}
	return &p, nil
}

func (r *ProductRepo) updateQuery(p *catalog.Product) squirrel.UpdateBuilder {
	return r.Builder().
		Update(postgres.TableProducts).
		SetMap(postgres.StructToMap(p, "id", "created_at")).
		Where(squirrel.Eq{"id": p.ID})
}

// Update writes the product back.
func (r *ProductRepo) Update(ctx context.Context, p *catalog.Product) error {
	q, err := r.txManager.TxQuerier(ctx)
	if err != nil {
		return err
	}

	sql, args, err := r.updateQuery(p).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.WrapError("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", p.ID)
	}
	return nil
}

// Count returns the number of products.
func (r *ProductRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, "SELECT COUNT(*) FROM "+postgres.TableProducts).Scan(&n)
	if err != nil {
		return 0, postgres.WrapError("count products", err)
	}
	return n, nil
}
