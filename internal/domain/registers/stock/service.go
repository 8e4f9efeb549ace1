package stock

import (
	"context"
	"fmt"

	"posledger/internal/core/apperror"
	"posledger/internal/domain/catalog"
	"posledger/pkg/logger"
)

// Service decrements product stock inside the caller's transaction.
type Service struct {
	products catalog.Repository
	policy   NegativeStockPolicy
}

// NewService creates a stock service with the given negative stock policy.
func NewService(products catalog.Repository, policy NegativeStockPolicy) *Service {
	return &Service{
		products: products,
		policy:   policy,
	}
}

// Validate checks movements without touching the store.
func Validate(movements []Movement) error {
	for i, m := range movements {
		if m.ProductID == 0 {
			return apperror.NewValidation(fmt.Sprintf("line %d: product id is required", i+1)).
				WithDetail("line", i+1)
		}
		if m.Quantity <= 0 {
			return apperror.NewValidation(fmt.Sprintf("line %d: quantity must be positive", i+1)).
				WithDetail("line", i+1).
				WithDetail("quantity", m.Quantity)
		}
	}
	return nil
}

// Decrement applies movements in input order. Each product row is loaded
// with a lock, reduced and written back. Must run inside a transaction; on
// error the caller rolls back whatever was already staged.
func (s *Service) Decrement(ctx context.Context, movements []Movement) ([]Balance, error) {
	if err := Validate(movements); err != nil {
		return nil, err
	}

	balances := make([]Balance, 0, len(movements))
	for _, m := range movements {
		p, err := s.products.GetForUpdate(ctx, m.ProductID)
		if err != nil {
			return nil, err
		}

		newStock := p.Stock - m.Quantity
		if newStock < 0 && s.policy == RejectNegative {
			return nil, apperror.NewInsufficientStock(m.ProductID, m.Quantity, p.Stock)
		}

		before := p.Stock
		p.Stock = newStock
		if err := s.products.Update(ctx, p); err != nil {
			return nil, err
		}

		balances = append(balances, Balance{ProductID: m.ProductID, Before: before, After: newStock})
	}

	logger.Debug(ctx, "stock decremented", "products", len(balances))

	return balances, nil
}
