package retry

import (
	"context"
	"time"
)

// Policy describes a bounded retry loop with exponential backoff. The zero
// value runs the operation once with no delay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Do runs fn until it succeeds, the attempt budget is exhausted, or ctx is
// canceled while waiting between attempts. The delay doubles after each
// failed attempt starting from BaseDelay. The last error is returned.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.BaseDelay
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
