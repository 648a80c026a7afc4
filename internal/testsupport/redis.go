package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"stockagents/internal/adapters/config"
)

const redisSetupTimeout = 3 * time.Second

// NewRedisClient connects to the test database described by cfg. The test is
// skipped when Redis does not answer. The database is emptied before the test
// and again on cleanup, so tests must use a dedicated REDIS_TEST_DB.
func NewRedisClient(t *testing.T, cfg config.RedisConfig) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisSetupTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis at %s unavailable: %v", cfg.Addr(), err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("flush redis db %d: %v", cfg.DB, err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), redisSetupTimeout)
		defer cancel()
		_ = client.FlushDB(ctx).Err()
		_ = client.Close()
	})

	return client
}
