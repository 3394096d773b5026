package generation

import (
	"context"

	ports "github.com/ZanzyTHEbar/helio-assistant/helio/generation/ports"
)

// Cached memoizes answers by normalized query.
type Cached struct {
	next       ports.Responder
	cache      ports.Cache
	ttlSeconds int
	tracer     ports.Tracer
}

// NewCached wraps next with cache.
func NewCached(next ports.Responder, cache ports.Cache, ttlSeconds int, tracer ports.Tracer) *Cached {
	if tracer == nil {
		tracer = noOpTracer{}
	}
	return &Cached{next: next, cache: cache, ttlSeconds: ttlSeconds, tracer: tracer}
}

func (c *Cached) Generate(ctx context.Context, query string) (string, error) {
	key := CacheKey(query)
	if v, ok := c.cache.Get(ctx, key); ok {
		c.tracer.Event(ctx, "cache_hit", map[string]any{"key": key})
		return string(v), nil
	}
	c.tracer.Event(ctx, "cache_miss", map[string]any{"key": key})

	out, err := c.next.Generate(ctx, query)
	if err != nil {
		return "", err
	}
	if err := c.cache.Set(ctx, key, []byte(out), c.ttlSeconds); err != nil {
		c.tracer.Event(ctx, "cache_set_failed", map[string]any{"error": err.Error()})
	}
	return out, nil
}

// RateLimited refuses calls once the limiter's budget for key is spent.
type RateLimited struct {
	next    ports.Responder
	limiter ports.RateLimiter
	key     string
}

// NewRateLimited wraps next; key is usually the provider name.
func NewRateLimited(next ports.Responder, limiter ports.RateLimiter, key string) *RateLimited {
	return &RateLimited{next: next, limiter: limiter, key: key}
}

func (r *RateLimited) Generate(ctx context.Context, query string) (string, error) {
	if err := r.limiter.Allow(ctx, r.key); err != nil {
		return "", &ports.GenerationError{Provider: r.key, Err: err}
	}
	return r.next.Generate(ctx, query)
}

// Traced wraps every call in a span.
type Traced struct {
	next     ports.Responder
	tracer   ports.Tracer
	provider string
}

// NewTraced wraps next with tracer.
func NewTraced(next ports.Responder, tracer ports.Tracer, provider string) *Traced {
	return &Traced{next: next, tracer: tracer, provider: provider}
}

func (t *Traced) Generate(ctx context.Context, query string) (string, error) {
	ctx, finish := t.tracer.StartSpan(ctx, "responder.generate", map[string]any{
		"provider":  t.provider,
		"query_len": len(query),
	})
	out, err := t.next.Generate(ctx, query)
	if err == nil {
		t.tracer.Event(ctx, "answered", map[string]any{"answer_len": len(out)})
	}
	finish(err)
	return out, err
}

var (
	_ ports.Responder = (*Cached)(nil)
	_ ports.Responder = (*RateLimited)(nil)
	_ ports.Responder = (*Traced)(nil)
)
