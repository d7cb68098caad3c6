package image

import (
	"context"
	"time"
)

// withRetry runs fn up to attempts times, sleeping delay, 2*delay, ... between
// tries. Only errors accepted by retryable are retried; the last error is
// returned when every attempt fails.
func withRetry(ctx context.Context, attempts int, delay time.Duration, retryable func(error) bool, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if retryable == nil || !retryable(err) || i == attempts-1 {
			return err
		}
		select {
		case <-time.After(delay * time.Duration(i+1)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
