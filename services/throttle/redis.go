package throttle

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/inquiry"
)

const keyPrefix = "throttle:"

// RedisLimiter allows `limit` hits per key in fixed windows of `window`.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

var _ inquiry.Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

// OpenRedis connects to the configured Redis server.
func OpenRedis(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

// Allow counts a hit on key. The counter and its expiry are set in one transaction,
// and the expiry is only set once per window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = keyPrefix + key
	var hits *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		hits = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return false, errors.Wrap(err, "counting hits")
	}
	return hits.Val() <= int64(l.limit), nil
}
