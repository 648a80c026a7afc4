package tools

import (
	"time"

	"stockagents/internal/tools/middleware"
)

// Factory provides fluent API for creating tools with middleware
type Factory struct {
	name        string
	description string
	fn          middleware.ToolFunc

	// Middleware options
	withRetry   bool
	retryConfig middleware.RetryMiddleware

	withTimeout   bool
	timeoutConfig middleware.TimeoutMiddleware

	withCache   bool
	cacheConfig middleware.CacheMiddleware

	withMetrics bool
}

// NewFactory creates a new factory for a tool
func NewFactory(name, description string, fn HandlerFunc) *Factory {
	return &Factory{
		name:        name,
		description: description,
		fn:          middleware.ToolFunc(fn),
		// Default configs
		retryConfig:   middleware.RetryMiddleware{Attempts: 3, Backoff: 500 * time.Millisecond},
		timeoutConfig: middleware.TimeoutMiddleware{Timeout: 30 * time.Second},
	}
}

// WithRetry enables retry middleware
func (b *Factory) WithRetry(attempts int, backoff time.Duration) *Factory {
	b.withRetry = true
	b.retryConfig = middleware.RetryMiddleware{
		Attempts: attempts,
		Backoff:  backoff,
	}
	return b
}

// WithTimeout enables timeout middleware
func (b *Factory) WithTimeout(timeout time.Duration) *Factory {
	b.withTimeout = true
	b.timeoutConfig = middleware.TimeoutMiddleware{
		Timeout: timeout,
	}
	return b
}

// WithCache enables read-through caching; a nil cache leaves it off
func (b *Factory) WithCache(cache middleware.Cache, ttl time.Duration) *Factory {
	b.withCache = cache != nil && ttl > 0
	b.cacheConfig = middleware.CacheMiddleware{Tool: b.name, Cache: cache, TTL: ttl}
	return b
}

// WithMetrics enables Prometheus tool metrics
func (b *Factory) WithMetrics() *Factory {
	b.withMetrics = true
	return b
}

// Build creates the tool with configured middleware applied
func (b *Factory) Build() Tool {
	fn := b.fn

	// Apply middleware in order: retry -> timeout -> cache -> metrics
	// Inner layers are applied first

	// 1. Retry (innermost - retries the actual tool logic)
	if b.withRetry {
		fn = b.retryConfig.WrapFunc(fn)
	}

	// 2. Timeout (wraps retry)
	if b.withTimeout {
		fn = b.timeoutConfig.WrapFunc(fn)
	}

	// 3. Cache (hits skip the provider and the deadline)
	if b.withCache {
		fn = b.cacheConfig.WrapFunc(fn)
	}

	// 4. Metrics (outermost - tracks everything including retries and cache hits)
	if b.withMetrics {
		fn = middleware.MetricsMiddleware{Tool: b.name}.WrapFunc(fn)
	}

	return New(b.name, b.description, HandlerFunc(fn))
}
