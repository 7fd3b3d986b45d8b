package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces limiter keys so they never collide with cache,
// idempotency or queue entries sharing the same Redis.
const DefaultPrefix = "bliss:rl:"

// Limiter is a sliding window rate limiter over Redis sorted sets. Each hit
// is a zset member scored by its timestamp; the window slides by trimming
// members older than the window before counting.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

// Allow records a hit for key and reports whether it stays within max hits
// per window. A nil client or non-positive limits disable enforcement.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}

	now := time.Now()
	reset = now.Add(window)
	prefix := l.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	zkey := prefix + key

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, zkey, "-inf", fmt.Sprintf("%f", float64(now.Add(-window).UnixNano())))
	pipe.ZAdd(ctx, zkey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: key + ":" + uuid.NewString(),
	})
	countCmd := pipe.ZCard(ctx, zkey)
	pipe.Expire(ctx, zkey, window)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, reset, err
	}

	hits := int(countCmd.Val())
	remaining = max - hits
	if remaining < 0 {
		remaining = 0
	}
	return hits <= max, remaining, reset, nil
}
