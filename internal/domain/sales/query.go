package sales

import (
	"context"
	"strings"
	"time"

	"posledger/internal/core/apperror"
	"posledger/internal/domain"
)

// Search modes for HistoryFilter.
const (
	SearchByNumber = "number"
	SearchByDate   = "date"
)

// HistoryFilter selects sales either by document number or by an inclusive
// calendar date range.
type HistoryFilter struct {
	SearchBy string
	Number   string
	From     time.Time
	To       time.Time
}

// QueryService is the read side over committed sales.
type QueryService struct {
	repo        Repository
	validNumber func(string) bool
}

// QueryOption configures a QueryService.
type QueryOption func(*QueryService)

// WithNumberFormat rejects number searches that valid reports as not being a
// document number this installation could have issued.
func WithNumberFormat(valid func(string) bool) QueryOption {
	return func(q *QueryService) { q.validNumber = valid }
}

// NewQueryService creates a query service.
func NewQueryService(repo Repository, opts ...QueryOption) *QueryService {
	q := &QueryService{repo: repo}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// History returns matching sales with their lines. A number that matches
// nothing yields an empty slice, not an error.
func (q *QueryService) History(ctx context.Context, f HistoryFilter) ([]*Sale, error) {
	switch f.SearchBy {
	case SearchByNumber:
		number := strings.TrimSpace(f.Number)
		if number == "" {
			return nil, apperror.NewValidation("document number is required")
		}
		if q.validNumber != nil && !q.validNumber(number) {
			return nil, apperror.NewValidation("malformed document number").
				WithDetail("number", number)
		}
		sale, err := q.repo.GetByNumber(ctx, number)
		if apperror.IsNotFound(err) {
			return []*Sale{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []*Sale{sale}, nil

	case SearchByDate:
		r, err := dayRange(f.From, f.To)
		if err != nil {
			return nil, err
		}
		return q.repo.ListByDateRange(ctx, r)

	default:
		return nil, apperror.NewValidation("searchBy must be \"number\" or \"date\"").
			WithDetail("searchBy", f.SearchBy)
	}
}

// Report returns one row per sold line for sales on the calendar days from..to.
func (q *QueryService) Report(ctx context.Context, from, to time.Time) ([]ReportLine, error) {
	r, err := dayRange(from, to)
	if err != nil {
		return nil, err
	}
	return q.repo.ReportLines(ctx, r)
}

func dayRange(from, to time.Time) (domain.DateRange, error) {
	if from.IsZero() || to.IsZero() {
		return domain.DateRange{}, apperror.NewValidation("from and to dates are required")
	}
	if domain.StartOfDay(to).Before(domain.StartOfDay(from)) {
		return domain.DateRange{}, apperror.NewValidation("from date must not be after to date")
	}
	return domain.CalendarDays(from, to), nil
}
