// Package catalog holds the product reference data that sales draw stock from.
package catalog

import (
	"context"
	"time"

	"posledger/internal/core/types"
)

// Product is a sellable item with an on-hand stock counter.
type Product struct {
	ID         int64       `db:"id" json:"id"`
	Name       string      `db:"name" json:"name"`
	CategoryID *int64      `db:"category_id" json:"categoryId,omitempty"`
	Stock      int64       `db:"stock" json:"stock"`
	Price      types.Money `db:"price" json:"price"`
	Active     bool        `db:"active" json:"active"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
}

// Repository is the product store as the sale core sees it.
type Repository interface {
	// Create inserts a product and assigns its ID. Requires a transaction.
	Create(ctx context.Context, p *Product) error

	// GetForUpdate loads a product and locks its row until the surrounding
	// transaction ends. Unknown id is NOT_FOUND. Requires a transaction.
	GetForUpdate(ctx context.Context, id int64) (*Product, error)

	// Update writes every mutable field of p back. Requires a transaction.
	Update(ctx context.Context, p *Product) error

	// Count returns the number of products.
	Count(ctx context.Context) (int64, error)
}
