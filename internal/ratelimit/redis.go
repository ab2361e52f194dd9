package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript keeps one sorted set per key, scored by the admission
// instant in milliseconds. Returns {allowed, remaining, retry_after_ms}.
var slidingWindowScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local window_ms = tonumber(ARGV[2])
    local max = tonumber(ARGV[3])
    local member = ARGV[4]

    redis.call('ZREMRANGEBYSCORE', key, '-inf', '(' .. (now_ms - window_ms))
    local count = redis.call('ZCARD', key)

    if count >= max then
        local retry_ms = window_ms
        local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
        if oldest[2] then
            retry_ms = tonumber(oldest[2]) + window_ms - now_ms
        end
        return { 0, 0, retry_ms }
    end

    redis.call('ZADD', key, now_ms, member)
    redis.call('PEXPIRE', key, window_ms)
    return { 1, max - count - 1, 0 }
`)

// RedisWindow shares sliding windows between processes through Redis.
type RedisWindow struct {
	rdb    redis.Scripter
	prefix string
	now    func() time.Time
}

// NewRedisWindow builds a limiter storing keys under prefix.
func NewRedisWindow(rdb redis.Scripter, prefix string) *RedisWindow {
	return &RedisWindow{rdb: rdb, prefix: prefix, now: time.Now}
}

var _ Limiter = (*RedisWindow)(nil)

func (r *RedisWindow) Allow(ctx context.Context, key string, rule Rule) (Result, error) {
	now := r.now()
	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())
	vals, err := slidingWindowScript.Run(ctx, r.rdb, []string{r.prefix + ":" + key},
		now.UnixMilli(), rule.Window.Milliseconds(), rule.Max, member).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit script: %w", err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("ratelimit script: unexpected result %v", vals)
	}
	res := Result{Limit: rule.Max, Remaining: int(vals[1])}
	if vals[0] != 1 {
		res.RetryAfter = time.Duration(vals[2]) * time.Millisecond
		return res, ErrLimitExceeded
	}
	return res, nil
}
