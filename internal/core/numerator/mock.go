// Package numerator provides domain contracts for document auto-numbering.
package numerator

import (
	"context"
	"time"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	NextFunc func(ctx context.Context, at time.Time) (string, error)
}

// Next implements Generator.
func (m *MockGenerator) Next(ctx context.Context, at time.Time) (string, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, at)
	}
	// Default: return predictable mock number
	return "0001", nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
