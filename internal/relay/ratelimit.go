package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles gamification actions per user per action kind, so a
// misbehaving client cannot farm XP faster than a human could watch or read.
type RateLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

// NewRateLimiter allows max actions per window for each (user, action) pair.
func NewRateLimiter(rdb *redis.Client, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, max: max, window: window}
}

// Allow records one action and reports whether it is within the limit.
func (rl *RateLimiter) Allow(ctx context.Context, userID, action string) (bool, error) {
	key := fmt.Sprintf("kami:rate:%s:%s", action, userID)

	count, err := rl.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	if count == 1 {
		rl.rdb.Expire(ctx, key, rl.window)
	}
	return count <= int64(rl.max), nil
}
