package sales

import (
	"context"

	"posledger/internal/domain"
)

// Repository persists sale aggregates.
type Repository interface {
	// Create inserts the header and all lines as one aggregate write and
	// assigns store IDs. Requires a transaction.
	Create(ctx context.Context, s *Sale) error

	// GetByNumber returns the sale with its lines (product names filled).
	GetByNumber(ctx context.Context, number string) (*Sale, error)

	// ListByDateRange returns sales registered within r, oldest first, with lines.
	ListByDateRange(ctx context.Context, r domain.DateRange) ([]*Sale, error)

	// ReportLines returns one row per sold line within r, oldest sale first.
	ReportLines(ctx context.Context, r domain.DateRange) ([]ReportLine, error)
}
