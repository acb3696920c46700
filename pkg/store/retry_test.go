package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errFlaky = errors.New("connection refused")

func TestRetryable(t *testing.T) {
	if retryable(nil) != nil {
		t.Error("retryable(nil) should return nil")
	}
	err := retryable(errFlaky)
	if !isRetryable(err) {
		t.Error("isRetryable should return true for wrapped error")
	}
	if err.Error() != errFlaky.Error() || !errors.Is(err, errFlaky) {
		t.Errorf("wrapped error lost its cause: %v", err)
	}
	if isRetryable(errFlaky) {
		t.Error("isRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"first try", 0, true, 1, false},
		{"permanent error", 5, false, 1, true},
		{"recovers", 2, true, 3, false},
		{"gives up", 5, true, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retryWithBackoff(ctx, 3, time.Millisecond, func() error {
				calls++
				if calls > tt.failures {
					return nil
				}
				if tt.retryable {
					return retryable(errFlaky)
				}
				return errFlaky
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retryWithBackoff(ctx, 3, time.Hour, func() error {
		return retryable(errFlaky)
	})
	if err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
