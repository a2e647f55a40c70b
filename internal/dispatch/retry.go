package dispatch

import (
	"context"
	"time"
)

// Strategy retries an operation with exponential backoff. Attempts is
// the total number of tries, not the number of retries.
type Strategy struct {
	Attempts int
	Delay    time.Duration
	Backoff  float64
}

// Do runs fn until it succeeds, attempts are exhausted, or ctx is done.
// The last error is returned.
func (s Strategy) Do(ctx context.Context, fn func() error) error {
	attempts := s.Attempts
	if attempts < 1 {
		attempts = 1
	}

	delay := s.Delay
	var err error

	for i := 0; i < attempts; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		if err = fn(); err == nil {
			return nil
		}

		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if s.Backoff > 1 {
			delay = time.Duration(float64(delay) * s.Backoff)
		}
	}

	return err
}
