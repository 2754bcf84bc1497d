package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisCache versions each scope with a counter. Invalidate bumps the
// counter so stale keys are never read again and expire on their own. The
// version doubles as the generation in the entry key, so a Set carrying an
// outdated version writes a key nobody reads.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func generationKey(scope string) string {
	return "listing:gen:" + scope
}

func entryKey(scope string, generation int64, key string) string {
	return "listing:" + scope + ":" + strconv.FormatInt(generation, 10) + ":" + key
}

func (c *RedisCache) generation(ctx context.Context, scope string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read listing generation %s: %w", scope, err)
	}
	return gen, nil
}

func (c *RedisCache) Get(ctx context.Context, scope, key string) ([]byte, int64, bool, error) {
	gen, err := c.generation(ctx, scope)
	if err != nil {
		return nil, 0, false, err
	}

	value, err := c.client.Get(ctx, entryKey(scope, gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("read listing %s/%s: %w", scope, key, err)
	}
	return value, gen, true, nil
}

func (c *RedisCache) Set(ctx context.Context, scope, key string, version int64, value []byte) error {
	if err := c.client.Set(ctx, entryKey(scope, version, key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("write listing %s/%s: %w", scope, key, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, scopes ...string) error {
	if len(scopes) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, scope := range scopes {
		pipe.Incr(ctx, generationKey(scope))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidate listings: %w", err)
	}
	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
