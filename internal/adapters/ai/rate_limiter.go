package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter defines the interface for rate limiting AI provider requests.
type RateLimiter interface {
	// Wait blocks until request can proceed or context is cancelled.
	Wait(ctx context.Context) error

	// Allow checks if request can proceed without blocking.
	Allow() bool

	// Limit returns current rate limit (requests per minute).
	Limit() float64
}

// LocalRateLimiter is an in-process token bucket backed by golang.org/x/time/rate.
type LocalRateLimiter struct {
	provider     ProviderName
	reqPerMinute float64
	limiter      *rate.Limiter
}

// NewLocalRateLimiter creates a token bucket limiter.
// reqPerMinute: maximum requests per minute (e.g., 500 for OpenAI Tier 1)
// burst: maximum burst size (defaults to 10% of rate)
func NewLocalRateLimiter(provider ProviderName, reqPerMinute float64, burst int) *LocalRateLimiter {
	return &LocalRateLimiter{
		provider:     provider,
		reqPerMinute: reqPerMinute,
		limiter:      rate.NewLimiter(rate.Limit(reqPerMinute/60.0), normalizeBurst(reqPerMinute, burst)),
	}
}

// Wait blocks until a token is available or context is cancelled.
func (l *LocalRateLimiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait cancelled for provider %s: %w", l.provider, err)
	}
	return nil
}

// Allow checks if a request can proceed and consumes a token if available.
func (l *LocalRateLimiter) Allow() bool {
	return l.limiter.Allow()
}

// Limit returns the current rate limit in requests per minute.
func (l *LocalRateLimiter) Limit() float64 {
	return l.reqPerMinute
}

func normalizeBurst(reqPerMinute float64, burst int) int {
	if burst > 0 {
		return burst
	}
	burst = int(reqPerMinute / 10)
	if burst < 1 {
		burst = 1
	}
	return burst
}

// NoOpLimiter is a rate limiter that never blocks (for testing or disabled rate limiting).
type NoOpLimiter struct{}

// NewNoOpLimiter creates a no-op rate limiter.
func NewNoOpLimiter() *NoOpLimiter {
	return &NoOpLimiter{}
}

// Wait always returns immediately without error.
func (l *NoOpLimiter) Wait(ctx context.Context) error {
	return nil
}

// Allow always returns true.
func (l *NoOpLimiter) Allow() bool {
	return true
}

// Limit returns -1 to indicate unlimited.
func (l *NoOpLimiter) Limit() float64 {
	return -1
}

// RateLimitConfig contains rate limit configuration for a provider.
type RateLimitConfig struct {
	Enabled      bool
	ReqPerMinute float64
	Burst        int
}

// DefaultRateLimits returns conservative limits for each provider's entry tier.
func DefaultRateLimits() map[ProviderName]RateLimitConfig {
	return map[ProviderName]RateLimitConfig{
		ProviderNameAnthropic: {
			Enabled:      true,
			ReqPerMinute: 50,
			Burst:        10,
		},
		ProviderNameOpenAI: {
			Enabled:      true,
			ReqPerMinute: 500,
			Burst:        50,
		},
		ProviderNameDeepSeek: {
			Enabled: false, // DeepSeek does not publish request limits
		},
		ProviderNameGoogle: {
			Enabled:      true,
			ReqPerMinute: 60,
			Burst:        10,
		},
	}
}

// RateLimiterFactory creates rate limiters with optional Redis support.
type RateLimiterFactory struct {
	redisClient *redis.Client
}

// NewRateLimiterFactory creates a factory for rate limiters.
// A nil client yields in-process limiters; otherwise limits are shared through Redis.
func NewRateLimiterFactory(redisClient *redis.Client) *RateLimiterFactory {
	return &RateLimiterFactory{redisClient: redisClient}
}

// Create creates a rate limiter for the specified provider.
func (f *RateLimiterFactory) Create(provider ProviderName, config RateLimitConfig) RateLimiter {
	if !config.Enabled || config.ReqPerMinute <= 0 {
		return NewNoOpLimiter()
	}

	if f.redisClient != nil {
		return NewRedisRateLimiter(f.redisClient, provider, config.ReqPerMinute, config.Burst)
	}

	return NewLocalRateLimiter(provider, config.ReqPerMinute, config.Burst)
}

// RateLimitError wraps rate limit related errors with provider context.
type RateLimitError struct {
	Provider ProviderName
	Limit    float64
	Err      error
}

// Error implements error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit error for provider %s (limit: %.0f req/min): %v", e.Provider, e.Limit, e.Err)
}

// Unwrap returns the underlying error.
func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// redisPollInterval bounds how long a Redis-backed Wait sleeps between attempts.
const redisPollInterval = time.Second
