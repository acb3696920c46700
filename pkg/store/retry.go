package store

import (
	"context"
	"errors"
	"time"
)

// retryableError marks an error as transient.
type retryableError struct{ err error }

// retryable wraps err so retryWithBackoff tries again.
func retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// retryWithBackoff calls fn up to attempts times, doubling delay between
// tries. Only errors wrapped with retryable trigger another attempt.
func retryWithBackoff(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !isRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
