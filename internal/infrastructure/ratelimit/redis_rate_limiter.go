package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"tourhub/pkg/logger"
)

// Fixed window counter. Returns the count and the window's remaining TTL in ms.
const redisAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisRateLimiter shares a per-key budget across instances. It fails open
// when Redis is unavailable.
type RedisRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

func NewRedisRateLimiter(client *redis.Client, window time.Duration, max int) *RedisRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &RedisRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "chat:rl:",
	}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	if l == nil || l.client == nil {
		return true, 0
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return false, l.window
	}

	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	values, err := l.client.Eval(ctx, redisAllowScript, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(values) != 2 {
		logger.Warn("Redis rate limiter unavailable, allowing %s: %v", key, err)
		return true, 0
	}

	if int(values[0]) <= l.max {
		return true, 0
	}
	wait := time.Duration(values[1]) * time.Millisecond
	if wait <= 0 {
		wait = l.window
	}
	return false, wait
}
