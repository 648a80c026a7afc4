package middleware

import (
	"context"
	"strings"
	"sync"
	"time"

	"stockagents/internal/metrics"
	"stockagents/pkg/errors"
	"stockagents/pkg/logger"
)

// Cache stores tool output. Get must return errors.ErrNotFound on a miss.
// internal/adapters/redis.Client satisfies it.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CacheMiddleware serves repeated lookups of the same symbol from Cache.
// Only successful results are stored.
type CacheMiddleware struct {
	Tool  string
	Cache Cache
	TTL   time.Duration
}

// WrapFunc adds read-through caching to fn.
func (m CacheMiddleware) WrapFunc(fn ToolFunc) ToolFunc {
	if m.Cache == nil || m.TTL <= 0 {
		return fn
	}

	log := logger.Get().With("component", "tool_cache", "tool", m.Tool)

	return func(ctx context.Context, symbol string) (string, error) {
		key := CacheKey(m.Tool, symbol)

		var cached string
		err := m.Cache.Get(ctx, key, &cached)
		if err == nil {
			metrics.RecordToolCache(m.Tool, true)
			return cached, nil
		}
		if !errors.Is(err, errors.ErrNotFound) {
			log.Warnw("Tool cache read failed", "key", key, "error", err)
		}
		metrics.RecordToolCache(m.Tool, false)

		result, err := fn(ctx, symbol)
		if err != nil {
			return result, err
		}

		if err := m.Cache.Set(ctx, key, result, m.TTL); err != nil {
			log.Warnw("Tool cache write failed", "key", key, "error", err)
		}
		return result, nil
	}
}

// CacheKey builds "tool:<name>:<SYMBOL>".
func CacheKey(tool, symbol string) string {
	return "tool:" + tool + ":" + strings.ToUpper(strings.TrimSpace(symbol))
}

// memorySweepInterval bounds how often Set scans for expired entries.
const memorySweepInterval = time.Minute

// MemoryCache is a process-local Cache with per-entry expiry.
// Expired entries are dropped on read and by a periodic sweep on write.
type MemoryCache struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	now       func() time.Time
	nextSweep time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get copies the cached string into dest, which must be a *string.
func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	out, ok := dest.(*string)
	if !ok {
		return errors.Wrapf(errors.ErrInvalidInput, "memory cache supports *string, got %T", dest)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "cache key %s", key)
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return errors.Wrapf(errors.ErrNotFound, "cache key %s expired", key)
	}

	*out = entry.value
	return nil
}

// Set stores value, which must be a string.
func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	s, ok := value.(string)
	if !ok {
		return errors.Wrapf(errors.ErrInvalidInput, "memory cache supports string values, got %T", value)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !now.Before(c.nextSweep) {
		for k, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, k)
			}
		}
		c.nextSweep = now.Add(memorySweepInterval)
	}

	c.entries[key] = memoryEntry{value: s, expiresAt: now.Add(ttl)}
	return nil
}
