package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "rate_limit:"

// Decision is the outcome of one rate-limit evaluation.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter counts accepted requests per key inside a trailing window, backed
// by a redis sorted set of request timestamps. When redis is unreachable it
// degrades to fail-open: requests are allowed and the fault is logged.
type Limiter struct {
	rdb redis.Cmdable
	log *zap.Logger
	now func() time.Time
}

func New(rdb redis.Cmdable, log *zap.Logger) *Limiter {
	return &Limiter{rdb: rdb, log: log, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Check runs the sliding-window evaluation: expire old entries, count, add
// the current request, and take it back out again if the window is full.
// Only accepted requests stay counted.
func (l *Limiter) Check(ctx context.Context, key string, limit int, window time.Duration) Decision {
	now := l.now()
	redisKey := keyPrefix + key
	windowStart := now.Add(-window).UnixNano()

	// Unique member per request so two requests in the same instant are
	// counted separately.
	member := strconv.FormatInt(now.UnixNano(), 10) + ":" + uuid.NewString()

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, redisKey, window+10*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return l.failOpen(key, limit, window, now, err)
	}

	count := int(countCmd.Val()) // requests already in the window, before this one
	if count >= limit {
		if err := l.rdb.ZRem(ctx, redisKey, member).Err(); err != nil {
			l.log.Warn("rate limiter cleanup failed", zap.String("key", key), zap.Error(err))
		}
		return Decision{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    now.Add(window),
			RetryAfter: window,
		}
	}

	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count - 1,
		ResetAt:   now.Add(window),
	}
}

// Status reports the current window state without consuming quota.
func (l *Limiter) Status(ctx context.Context, key string, limit int, window time.Duration) Decision {
	now := l.now()
	windowStart := now.Add(-window).UnixNano()

	count, err := l.rdb.ZCount(ctx, keyPrefix+key,
		strconv.FormatInt(windowStart, 10),
		strconv.FormatInt(now.UnixNano(), 10)).Result()
	if err != nil {
		return l.failOpen(key, limit, window, now, err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   int(count) < limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   now.Add(window),
	}
}

func (l *Limiter) failOpen(key string, limit int, window time.Duration, now time.Time, err error) Decision {
	l.log.Warn("rate limiter backend unavailable, failing open",
		zap.String("key", key),
		zap.Error(err),
	)
	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - 1,
		ResetAt:   now.Add(window),
	}
}
