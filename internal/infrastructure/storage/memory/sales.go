package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"posledger/internal/core/apperror"
	"posledger/internal/domain"
	"posledger/internal/domain/sales"
)

var _ sales.Repository = (*SaleRepo)(nil)

// SaleRepo implements sales.Repository.
type SaleRepo struct {
	store *Store
}

// Create implements sales.Repository. It enforces the same constraints as
// the relational schema: unique document number and existing products.
func (r *SaleRepo) Create(ctx context.Context, s *sales.Sale) error {
	return r.store.write(ctx, OpSaleInsert, func(st *State) error {
		for _, existing := range st.Sales {
			if existing.DocumentNumber == s.DocumentNumber {
				return apperror.NewStorage("insert sale",
					fmt.Errorf("duplicate document number %q", s.DocumentNumber)).
					WithDetail("constraint", "sales_document_number_key")
			}
		}
		for _, l := range s.Lines {
			if _, ok := st.Products[l.ProductID]; !ok {
				return apperror.NewStorage("insert sale lines",
					fmt.Errorf("product %d does not exist", l.ProductID)).
					WithDetail("constraint", "sale_lines_product_id_fkey")
			}
		}

		s.ID = st.NextSaleID
		st.NextSaleID++
		for i := range s.Lines {
			s.Lines[i].ID = st.NextLineID
			s.Lines[i].SaleID = s.ID
			st.NextLineID++
		}

		stored := *s
		stored.Lines = slices.Clone(s.Lines)
		for i := range stored.Lines {
			stored.Lines[i].ProductName = ""
		}
		st.Sales = append(st.Sales, stored)
		return nil
	})
}

// withNames returns a copy of sale with product names filled in.
func withNames(st *State, sale sales.Sale) *sales.Sale {
	sale.Lines = slices.Clone(sale.Lines)
	for i := range sale.Lines {
		sale.Lines[i].ProductName = st.Products[sale.Lines[i].ProductID].Name
	}
	return &sale
}

// GetByNumber implements sales.Repository.
func (r *SaleRepo) GetByNumber(ctx context.Context, number string) (*sales.Sale, error) {
	var out *sales.Sale
	err := r.store.read(ctx, func(st *State) error {
		for _, sale := range st.Sales {
			if sale.DocumentNumber == number {
				out = withNames(st, sale)
				return nil
			}
		}
		return apperror.NewNotFound("sale", number)
	})
	return out, err
}

func inRange(st *State, rng domain.DateRange) []sales.Sale {
	var out []sales.Sale
	for _, sale := range st.Sales {
		if rng.Contains(sale.RegisteredAt) {
			out = append(out, sale)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].RegisteredAt.Before(out[j].RegisteredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ListByDateRange implements sales.Repository.
func (r *SaleRepo) ListByDateRange(ctx context.Context, rng domain.DateRange) ([]*sales.Sale, error) {
	out := []*sales.Sale{}
	err := r.store.read(ctx, func(st *State) error {
		for _, sale := range inRange(st, rng) {
			out = append(out, withNames(st, sale))
		}
		return nil
	})
	return out, err
}

// ReportLines implements sales.Repository.
func (r *SaleRepo) ReportLines(ctx context.Context, rng domain.DateRange) ([]sales.ReportLine, error) {
	out := []sales.ReportLine{}
	err := r.store.read(ctx, func(st *State) error {
		for _, sale := range inRange(st, rng) {
			for _, l := range sale.Lines {
				out = append(out, sales.ReportLine{
					SaleID:         sale.ID,
					DocumentNumber: sale.DocumentNumber,
					RegisteredAt:   sale.RegisteredAt,
					PaymentType:    sale.PaymentType,
					SaleTotal:      sale.Total,
					ProductID:      l.ProductID,
					ProductName:    st.Products[l.ProductID].Name,
					Quantity:       l.Quantity,
					UnitPrice:      l.UnitPrice,
					Subtotal:       l.Subtotal,
				})
			}
		}
		return nil
	})
	return out, err
}
