package adapters

import (
	"context"
	"sync"
	"time"

	ports "github.com/ZanzyTHEbar/helio-assistant/helio/generation/ports"
)

// TokenBucket implements a per-key token bucket rate limiter.
type TokenBucket struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	capacity   int           // max tokens per bucket
	refillRate time.Duration // time between token refills
	now        func() time.Time
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewTokenBucket creates a new token bucket rate limiter.
func NewTokenBucket(capacity int, refillRate time.Duration) *TokenBucket {
	return &TokenBucket{
		buckets:    make(map[string]*bucket),
		capacity:   capacity,
		refillRate: refillRate,
		now:        time.Now,
	}
}

// Allow consumes a token for key. Tokens are never returned; they come back
// only through refill.
func (tb *TokenBucket) Allow(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	b, exists := tb.buckets[key]
	if !exists {
		b = &bucket{tokens: tb.capacity, lastRefill: now}
		tb.buckets[key] = b
	}

	if tb.refillRate > 0 {
		if add := int(now.Sub(b.lastRefill) / tb.refillRate); add > 0 {
			b.tokens = min(b.tokens+add, tb.capacity)
			b.lastRefill = b.lastRefill.Add(time.Duration(add) * tb.refillRate)
		}
	}

	if b.tokens <= 0 {
		return ports.ErrRateLimited
	}
	b.tokens--
	return nil
}

var _ ports.RateLimiter = (*TokenBucket)(nil)
