package middleware

import (
	"context"
	"time"

	"stockagents/pkg/errors"
)

// TimeoutMiddleware enforces per-call deadlines for tool execution.
type TimeoutMiddleware struct {
	Timeout time.Duration
}

// WrapFunc sets a timeout on tool execution if configured. An elapsed
// deadline is reported as errors.ErrTimeout.
func (m TimeoutMiddleware) WrapFunc(fn ToolFunc) ToolFunc {
	if m.Timeout <= 0 {
		return fn
	}

	return func(ctx context.Context, symbol string) (string, error) {
		ctxWithTimeout, cancel := context.WithTimeout(ctx, m.Timeout)
		defer cancel()

		result, err := fn(ctxWithTimeout, symbol)
		if err != nil && ctx.Err() == nil && errors.Is(ctxWithTimeout.Err(), context.DeadlineExceeded) {
			if !errors.Is(err, errors.ErrTimeout) {
				err = errors.Wrapf(errors.ErrTimeout, "no answer within %s", m.Timeout)
			}
		}
		return result, err
	}
}
