package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/toko-storefront/internal/resilience"
)

// FailoverLimiter consults Primary while its breaker is closed and Fallback
// otherwise. A Primary error is reported to the breaker and the request is
// answered by Fallback.
type FailoverLimiter struct {
	Primary  Limiter
	Fallback Limiter
	Breaker  *resilience.Breaker
	// OnFailover, when set, receives every Primary error.
	OnFailover func(error)
}

// Allow implements Limiter.
func (f FailoverLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if f.Primary == nil {
		return f.fallback(ctx, key, window, max, resilience.ErrOpenCircuit)
	}
	if f.Breaker != nil && !f.Breaker.Allow() {
		return f.fallback(ctx, key, window, max, resilience.ErrOpenCircuit)
	}
	allowed, remaining, reset, err := f.Primary.Allow(ctx, key, window, max)
	if f.Breaker != nil {
		f.Breaker.Report(err == nil)
	}
	if err != nil {
		if f.OnFailover != nil {
			f.OnFailover(err)
		}
		return f.fallback(ctx, key, window, max, err)
	}
	return allowed, remaining, reset, nil
}

func (f FailoverLimiter) fallback(ctx context.Context, key string, window time.Duration, max int, cause error) (bool, int, time.Time, error) {
	if f.Fallback == nil {
		return false, 0, time.Now().Add(window), fmt.Errorf("ratelimit: no fallback: %w", cause)
	}
	return f.Fallback.Allow(ctx, key, window, max)
}
