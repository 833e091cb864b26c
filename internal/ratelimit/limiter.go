// Package ratelimit throttles login attempts per client.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter counts attempts for a key within a fixed budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Config bounds attempts per window.
type Config struct {
	Attempts int
	Window   time.Duration
}

type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisLimiter is a fixed-window counter shared by every replica.
type RedisLimiter struct {
	client counter
	cfg    Config
	prefix string
}

// NewRedisLimiter builds a limiter on top of a go-redis client.
func NewRedisLimiter(client counter, cfg Config) *RedisLimiter {
	return &RedisLimiter{client: client, cfg: cfg, prefix: "ratelimit:login:"}
}

// Allow increments the window counter for key. A counter found without a
// TTL gets one again, so a failed EXPIRE cannot lock the key out for good.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := l.prefix + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("incr %s: %w", redisKey, err)
	}

	ttl := l.cfg.Window
	if count > 1 {
		ttl, err = l.client.TTL(ctx, redisKey).Result()
		if err != nil {
			return Decision{}, fmt.Errorf("ttl %s: %w", redisKey, err)
		}
	}
	// TTL reports -1 for a key that exists but never expires.
	if count == 1 || ttl < 0 {
		if err := l.client.Expire(ctx, redisKey, l.cfg.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", redisKey, err)
		}
		ttl = l.cfg.Window
	}

	if count <= int64(l.cfg.Attempts) {
		return Decision{Allowed: true}, nil
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	return Decision{Allowed: false, RetryAfter: ttl}, nil
}

// LocalLimiter is an in-process token bucket per key, used when Redis is
// not available.
type LocalLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	limit       rate.Limit
	burst       int
	idleAfter   time.Duration
	lastSeen    map[string]time.Time
	lastCleanup time.Time
	now         func() time.Time
}

// NewLocalLimiter refills Attempts tokens evenly over Window.
func NewLocalLimiter(cfg Config) *LocalLimiter {
	return &LocalLimiter{
		limiters:    make(map[string]*rate.Limiter),
		lastSeen:    make(map[string]time.Time),
		limit:       rate.Limit(float64(cfg.Attempts) / cfg.Window.Seconds()),
		burst:       cfg.Attempts,
		idleAfter:   cfg.Window,
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Allow consumes one token for key.
func (l *LocalLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanup(now)

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	l.lastSeen[key] = now

	if limiter.AllowN(now, 1) {
		return Decision{Allowed: true}, nil
	}

	reservation := limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	reservation.CancelAt(now)
	if delay < time.Second {
		delay = time.Second
	}
	return Decision{Allowed: false, RetryAfter: delay}, nil
}

// cleanup drops keys idle for longer than a window. Caller holds l.mu.
func (l *LocalLimiter) cleanup(now time.Time) {
	if now.Sub(l.lastCleanup) < l.idleAfter {
		return
	}
	l.lastCleanup = now
	for key, seen := range l.lastSeen {
		if now.Sub(seen) >= l.idleAfter {
			delete(l.limiters, key)
			delete(l.lastSeen, key)
		}
	}
}

// Key builds the throttle key for a login attempt.
func Key(clientIP, email string) string {
	return clientIP + "|" + email
}
