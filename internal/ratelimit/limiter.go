package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Limiter decides whether another event for key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error)
}

// RedisLimiter implements a sliding window rate limiter backed by Redis sorted sets.
type RedisLimiter struct {
	Client *redis.Client
	Prefix string
}

// Allow registers an event for the given key and returns whether it is within the limit.
func (l RedisLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}

	now := time.Now()
	until := now.Add(window)
	score := float64(now.UnixNano())
	cutoff := float64(now.Add(-window).UnixNano())

	redisKey := l.Prefix + key
	member := fmt.Sprintf("%s:%s", key, uuid.NewString())

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatFloat(cutoff, 'f', 0, 64))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: score, Member: member})
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, until, fmt.Errorf("ratelimit: redis: %w", err)
	}

	current := int(countCmd.Val())
	remaining = max - current
	if remaining < 0 {
		remaining = 0
	}
	return current <= max, remaining, until, nil
}

// StoreLimiter counts fixed windows in a ulule limiter store. It serves
// single-instance deployments that run without Redis.
type StoreLimiter struct {
	Store limiter.Store

	mu    sync.Mutex
	rates map[string]*limiter.Limiter
}

// NewMemoryLimiter returns a StoreLimiter over an in-process store.
func NewMemoryLimiter() *StoreLimiter {
	return &StoreLimiter{Store: memory.NewStore()}
}

func (l *StoreLimiter) limiterFor(window time.Duration, max int) *limiter.Limiter {
	id := window.String() + "/" + strconv.Itoa(max)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rates == nil {
		l.rates = map[string]*limiter.Limiter{}
	}
	lim, ok := l.rates[id]
	if !ok {
		lim = limiter.New(l.Store, limiter.Rate{Period: window, Limit: int64(max)})
		l.rates[id] = lim
	}
	return lim
}

// Allow implements Limiter.
func (l *StoreLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if l == nil || l.Store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	lctx, err := l.limiterFor(window, max).Get(ctx, window.String()+"/"+strconv.Itoa(max)+":"+key)
	if err != nil {
		return false, 0, time.Now().Add(window), fmt.Errorf("ratelimit: store: %w", err)
	}
	return !lctx.Reached, int(lctx.Remaining), time.Unix(lctx.Reset, 0), nil
}
