package middleware

import (
	"context"
	"time"

	"stockagents/pkg/errors"
)

// RetryMiddleware retries tool execution on error with optional backoff.
type RetryMiddleware struct {
	Attempts int
	Backoff  time.Duration

	// Retryable decides whether err is worth another attempt. Nil uses IsRetryable.
	Retryable func(error) bool
}

// WrapFunc adds retry semantics to fn. The final error from the last attempt is returned.
func (m RetryMiddleware) WrapFunc(fn ToolFunc) ToolFunc {
	attempts := m.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	retryable := m.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	return func(ctx context.Context, symbol string) (string, error) {
		var result string
		var err error

		for i := 0; i < attempts; i++ {
			result, err = fn(ctx, symbol)
			if err == nil || !retryable(err) {
				return result, err
			}

			if i < attempts-1 {
				backoff := m.Backoff * time.Duration(1<<i)
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(backoff):
				}
			}
		}

		return result, err
	}
}

// IsRetryable reports whether err is transient. Bad symbols, bad input,
// provider throttling and cancellation are final.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, errors.ErrInvalidSymbol),
		errors.Is(err, errors.ErrInvalidInput),
		errors.Is(err, errors.ErrRateLimitExceeded),
		errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}
