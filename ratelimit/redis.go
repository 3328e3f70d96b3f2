package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript keeps one sorted-set member per request scored by its time in
// microseconds. It returns {allowed, count} where count includes the admitted requests.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local window_start = tonumber(ARGV[1])
	local now = tonumber(ARGV[2])
	local rate = tonumber(ARGV[3])
	local n = tonumber(ARGV[4])
	local window_ms = tonumber(ARGV[5])
	local member = ARGV[6]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count + n > rate then
		return {0, count}
	end

	for i = 1, n do
		redis.call('ZADD', key, now, member .. ':' .. i)
	end
	redis.call('PEXPIRE', key, window_ms)

	return {1, count + n}
`)

// RedisLimiter is a Redis-backed sliding window limiter shared by every server instance.
type RedisLimiter struct {
	client    redis.Cmdable
	keyPrefix string
	rate      int
	window    time.Duration
	now       func() time.Time
}

// RedisConfig holds Redis rate limiter configuration.
type RedisConfig struct {
	// Client is the Redis client to use.
	Client redis.Cmdable

	// KeyPrefix is the prefix for all rate limit keys.
	// Defaults to "gofeed:ratelimit:".
	KeyPrefix string

	// Rate is the number of requests allowed per window.
	Rate int

	// Window is the time window for the rate limit.
	Window time.Duration

	// Now is the clock used for request scores. Defaults to time.Now.
	Now func() time.Time
}

// NewRedisLimiter creates a new Redis-backed rate limiter.
func NewRedisLimiter(cfg *RedisConfig) *RedisLimiter {
	r := &RedisLimiter{
		client:    cfg.Client,
		keyPrefix: cfg.KeyPrefix,
		rate:      cfg.Rate,
		window:    cfg.Window,
		now:       cfg.Now,
	}
	if r.keyPrefix == "" {
		r.keyPrefix = "gofeed:ratelimit:"
	}
	if r.rate <= 0 {
		r.rate = DefaultRate
	}
	if r.window <= 0 {
		r.window = DefaultWindow
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Allow implements Limiter.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	return r.AllowN(ctx, key, 1)
}

// AllowN implements Limiter.
func (r *RedisLimiter) AllowN(ctx context.Context, key string, n int) (Result, error) {
	now := r.now()

	out, err := slidingWindowScript.Run(ctx, r.client, []string{r.keyPrefix + key},
		now.Add(-r.window).UnixMicro(),
		now.UnixMicro(),
		r.rate,
		n,
		r.window.Milliseconds(),
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("redis rate limit script failed: %w", err)
	}
	if len(out) != 2 {
		return Result{}, fmt.Errorf("redis rate limit script returned %d values", len(out))
	}

	return Result{
		Allowed:   out[0] == 1,
		Limit:     r.rate,
		Remaining: max(r.rate-int(out[1]), 0),
		ResetAt:   now.Add(r.window),
	}, nil
}

// Remaining returns the number of requests key may still make now.
func (r *RedisLimiter) Remaining(ctx context.Context, key string) (int, error) {
	redisKey := r.keyPrefix + key
	windowStart := r.now().Add(-r.window).UnixMicro()

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return max(r.rate-int(countCmd.Val()), 0), nil
}

// Reset implements Limiter.
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.keyPrefix+key).Err()
}

// Close is a no-op: the client is managed by the caller.
func (r *RedisLimiter) Close() error {
	return nil
}

var _ Limiter = (*RedisLimiter)(nil)
