package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"vidtube/internal/models"
	"vidtube/pkg/logger"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, resource, key string) (bool, error)
}

// RedisLimiter is a fixed-window counter shared by every instance using the
// same Redis.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, resource, key string) (bool, error) {
	if l.rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	redisKey := fmt.Sprintf("rl:%s:%s", resource, key)

	cnt, err := l.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		if err := l.rdb.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, err
		}
	}
	return cnt <= int64(l.limit), nil
}

// LocalLimiter keeps one token bucket per key in process memory. It is used
// when no Redis is configured.
type LocalLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, resource, key string) (bool, error) {
	id := resource + ":" + key
	l.mu.Lock()
	limiter, ok := l.limiters[id]
	if !ok {
		limiter = rate.NewLimiter(l.every, l.burst)
		l.limiters[id] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow(), nil
}

// RateLimit rejects callers over the limiter's budget with 429. Callers are
// keyed by user id when authenticated and by remote IP otherwise. Limiter
// failures let the request through.
func RateLimit(limiter Limiter, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := "ip:" + c.IP()
		if userID := UserID(c); userID != "" {
			key = "user:" + userID
		}

		allowed, err := limiter.Allow(c.UserContext(), resource, key)
		if err != nil {
			logger.Warn("rate limit check failed", zap.String("resource", resource), zap.Error(err))
			return c.Next()
		}
		if !allowed {
			return models.NewTooManyRequestsError("Too many requests, please try again later")
		}
		return c.Next()
	}
}
