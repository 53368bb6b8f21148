package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tableflow/llm-backend/internal/auth"
)

// RedisLimiter shares the fixed-window counters across processes. Same
// semantics as MemoryLimiter; windows are aligned to wall-clock minute
// boundaries so every process agrees on them.
type RedisLimiter struct {
	client *redis.Client
	limit  int
}

func NewRedisLimiter(redisURL string, limit int) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	return &RedisLimiter{client: redis.NewClient(opt), limit: limit}, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, Info, error) {
	now := time.Now()
	windowStart := now.Truncate(Window)
	redisKey := fmt.Sprintf("ratelimit:key:%s:%d", auth.KeyFingerprint(key), windowStart.Unix())

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, Info{}, err
	}
	if count == 1 {
		l.client.Expire(ctx, redisKey, 2*Window)
	}

	resetAt := windowStart.Add(Window)
	info := Info{Limit: l.limit, ResetAt: resetAt}
	if count <= int64(l.limit) {
		info.Remaining = l.limit - int(count)
		return true, info, nil
	}
	info.RetryAfter = resetAt.Sub(now)
	return false, info, nil
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
