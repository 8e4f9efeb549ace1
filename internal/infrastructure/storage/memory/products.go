package memory

import (
	"context"
	"time"

	"posledger/internal/core/apperror"
	"posledger/internal/domain/catalog"
)

var _ catalog.Repository = (*ProductRepo)(nil)

// ProductRepo implements catalog.Repository.
type ProductRepo struct {
	store *Store
}

// Create implements catalog.Repository.
func (r *ProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	return r.store.write(ctx, OpProductInsert, func(st *State) error {
		p.ID = st.NextProductID
		st.NextProductID++
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		st.Products[p.ID] = *p
		return nil
	})
}

// GetForUpdate implements catalog.Repository. The writer slot held by the
// transaction is the lock.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*catalog.Product, error) {
	var out *catalog.Product
	err := r.store.write(ctx, OpProductGet, func(st *State) error {
		p, ok := st.Products[id]
		if !ok {
			return apperror.NewNotFound("product", id)
		}
		out = &p
		return nil
	})
	return out, err
}

// Update implements catalog.Repository.
func (r *ProductRepo) Update(ctx context.Context, p *catalog.Product) error {
	return r.store.write(ctx, OpProductUpdate, func(st *State) error {
		if _, ok := st.Products[p.ID]; !ok {
			return apperror.NewNotFound("product", p.ID)
		}
		st.Products[p.ID] = *p
		return nil
	})
}

// Count implements catalog.Repository.
func (r *ProductRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.store.read(ctx, func(st *State) error {
		n = int64(len(st.Products))
		return nil
	})
	return n, err
}
