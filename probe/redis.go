package probe

import (
	"context"
	"errors"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

// RedisChecker is ready when PING answers PONG. Target is either host:port
// or a redis:// URL.
type RedisChecker struct{}

// NewRedisChecker returns a RedisChecker.
func NewRedisChecker() *RedisChecker {
	return &RedisChecker{}
}

// Check opens a single connection, pings and closes it.
func (c *RedisChecker) Check(ctx context.Context, target string) error {
	opts, err := redisOptions(target)
	if err != nil {
		return Unhealthy("invalid redis target: %v", err)
	}
	// The prober owns retries and pooling is pointless for one command.
	opts.MaxRetries = -1
	opts.PoolSize = 1

	rdb := goredis.NewClient(opts)
	defer rdb.Close()

	pong, err := rdb.Ping(ctx).Result()
	if err != nil {
		var redisErr goredis.Error
		if errors.As(err, &redisErr) && !strings.HasPrefix(err.Error(), "LOADING") {
			return Unhealthy("redis: %v", err)
		}
		return err
	}
	if pong != "PONG" {
		return Unhealthy("unexpected ping response %q", pong)
	}
	return nil
}

func redisOptions(target string) (*goredis.Options, error) {
	if strings.Contains(target, "://") {
		return goredis.ParseURL(target)
	}
	return &goredis.Options{Addr: target}, nil
}
