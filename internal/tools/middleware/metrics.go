package middleware

import (
	"context"
	"time"

	"stockagents/internal/metrics"
	"stockagents/pkg/logger"
)

// MetricsMiddleware records tool latency and outcome in Prometheus.
type MetricsMiddleware struct {
	Tool string
}

// WrapFunc measures everything inside it, retries included.
func (m MetricsMiddleware) WrapFunc(fn ToolFunc) ToolFunc {
	log := logger.Get().With("component", "tool", "tool", m.Tool)

	return func(ctx context.Context, symbol string) (string, error) {
		start := time.Now()
		result, err := fn(ctx, symbol)
		duration := time.Since(start)

		metrics.RecordToolExecution(m.Tool, duration, err)
		if err != nil {
			log.Debugw("Tool failed", "symbol", symbol, "duration", duration, "error", err)
		} else {
			log.Debugw("Tool completed", "symbol", symbol, "duration", duration)
		}

		return result, err
	}
}
