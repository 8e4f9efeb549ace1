// Package numerator provides domain contracts for document auto-numbering.
package numerator

import (
	"fmt"

	"posledger/internal/core/apperror"
)

// OverflowPolicy decides what happens when a counter value needs more digits
// than PadWidth provides.
type OverflowPolicy int

const (
	// OverflowWiden renders the full value; the number simply grows wider.
	OverflowWiden OverflowPolicy = iota

	// OverflowFail refuses to issue the number with SEQUENCE_OVERFLOW.
	OverflowFail
)

// ParseOverflowPolicy maps the configuration keyword to a policy.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "", "widen":
		return OverflowWiden, nil
	case "fail":
		return OverflowFail, nil
	default:
		return OverflowWiden, fmt.Errorf("unknown overflow policy %q", s)
	}
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "S-"); empty by default
	Prefix string

	// PadWidth is the minimum number of digits (default 4)
	PadWidth int

	// Overflow is applied when a value has more digits than PadWidth
	Overflow OverflowPolicy
}

// DefaultConfig returns sensible defaults: "0001", "0002", ...
func DefaultConfig() Config {
	return Config{PadWidth: 4, Overflow: OverflowWiden}
}

// Format renders n as a zero-padded document number.
// High-order digits are never dropped.
func Format(cfg Config, n int64) (string, error) {
	width := cfg.PadWidth
	if width <= 0 {
		width = DefaultConfig().PadWidth
	}
	if cfg.Overflow == OverflowFail && exceedsWidth(n, width) {
		return "", apperror.NewSequenceOverflow(n, width)
	}
	return fmt.Sprintf("%s%0*d", cfg.Prefix, width, n), nil
}

func exceedsWidth(n int64, width int) bool {
	if width >= 19 {
		return false
	}
	limit := int64(1)
	for i := 0; i < width; i++ {
		limit *= 10
	}
	return n >= limit
}
