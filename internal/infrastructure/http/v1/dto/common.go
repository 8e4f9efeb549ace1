// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"posledger/internal/core/apperror"
	"posledger/internal/core/types"
	"posledger/internal/domain/sales"
)

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// NewListResponse creates a list response; nil becomes an empty list.
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}

// ErrorResponse documents the error body rendered by middleware.ErrorHandler.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Money renders an amount with exactly two decimals.
func Money(m types.Money) string {
	return m.StringFixed(types.MoneyScale)
}

// ParseDate parses a dd/MM/yyyy calendar date (UTC).
func ParseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, apperror.NewValidation(field + " is required").WithDetail("field", field)
	}
	t, err := time.Parse(sales.DateLayout, value)
	if err != nil {
		return time.Time{}, apperror.NewValidation(field + " must be a dd/MM/yyyy date").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return t, nil
}

// FormatDate renders t as dd/MM/yyyy.
func FormatDate(t time.Time) string {
	return t.UTC().Format(sales.DateLayout)
}
