package memory

import (
	"context"
	"time"

	"posledger/internal/core/apperror"
	"posledger/internal/core/numerator"
)

var _ numerator.Counter = (*Counter)(nil)

// Counter implements numerator.Counter over the sequence row.
type Counter struct {
	store *Store
}

// Increment implements numerator.Counter.
func (c *Counter) Increment(ctx context.Context, at time.Time) (int64, error) {
	var n int64
	err := c.store.write(ctx, OpSequenceIncrement, func(st *State) error {
		if st.Sequence == nil {
			return apperror.NewSequenceMissing()
		}
		st.Sequence.LastNumber++
		st.Sequence.LastRegisteredAt = &at
		n = st.Sequence.LastNumber
		return nil
	})
	return n, err
}

// Current implements numerator.Counter.
func (c *Counter) Current(ctx context.Context) (int64, error) {
	var n int64
	err := c.store.read(ctx, func(st *State) error {
		if st.Sequence == nil {
			return apperror.NewSequenceMissing()
		}
		n = st.Sequence.LastNumber
		return nil
	})
	return n, err
}

// Reset implements numerator.Counter.
func (c *Counter) Reset(ctx context.Context, value int64) error {
	if value < 0 {
		return apperror.NewValidation("sequence value must not be negative")
	}
	return c.store.write(ctx, OpSequenceReset, func(st *State) error {
		if st.Sequence == nil {
			st.Sequence = &Sequence{}
		}
		st.Sequence.LastNumber = value
		return nil
	})
}
