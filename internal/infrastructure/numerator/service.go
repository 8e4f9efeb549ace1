// Package numerator issues sale document numbers from the single shared
// counter row. This is the infrastructure layer - it implements
// core/numerator.Generator on top of a core/numerator.Counter.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	corenumerator "posledger/internal/core/numerator"
	"posledger/pkg/logger"
)

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// Service formats counter values into document numbers.
// Every number comes straight from the counter row; no ranges are cached in
// memory, so a rolled-back sale never leaves a gap.
type Service struct {
	counter corenumerator.Counter
	cfg     corenumerator.Config
}

// New creates a numerator service.
func New(counter corenumerator.Counter, cfg corenumerator.Config) *Service {
	return &Service{
		counter: counter,
		cfg:     cfg,
	}
}

// Next implements corenumerator.Generator.
// The increment joins the transaction in ctx; an overflow error is returned
// after the increment so the caller's rollback discards it.
func (s *Service) Next(ctx context.Context, at time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	n, err := s.counter.Increment(ctx, at)
	if err != nil {
		return "", err
	}
	return corenumerator.Format(s.cfg, n)
}

// Verify checks that the counter row exists. Called at startup so a missing
// row is reported before the first sale attempt.
func (s *Service) Verify(ctx context.Context) error {
	n, err := s.counter.Current(ctx)
	if err != nil {
		return err
	}
	logger.Info(ctx, "document sequence ready", "last_number", n, "pad_width", s.cfg.PadWidth)
	return nil
}

// Valid reports whether number has the configured prefix and a zero-padded
// numeric part.
func (s *Service) Valid(number string) bool {
	return ParseNumber(s.cfg, number) >= 0
}

// ParseNumber extracts the numeric part from a formatted number.
// Returns -1 if the prefix does not match or the rest is not all digits.
func ParseNumber(cfg corenumerator.Config, formatted string) int64 {
	rest, ok := strings.CutPrefix(formatted, cfg.Prefix)
	if !ok || rest == "" {
		return -1
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return -1
		}
	}
	num, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return -1
	}
	return num
}
