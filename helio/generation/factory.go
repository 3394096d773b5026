package generation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/helio-assistant/helio/config"
	"github.com/ZanzyTHEbar/helio-assistant/helio/generation/adapters"
	ports "github.com/ZanzyTHEbar/helio-assistant/helio/generation/ports"
)

// Factory creates and wires responder components from configuration.
type Factory struct {
	cfg    *config.ResponderConfig
	logger zerolog.Logger

	// base overrides the configured provider; used by tests and embedders.
	base ports.Responder
}

// NewFactory creates a new responder factory.
func NewFactory(cfg *config.ResponderConfig, logger zerolog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger.With().Str("component", "responder").Logger(),
	}
}

// WithBase makes the factory wrap base instead of building a provider.
func (f *Factory) WithBase(base ports.Responder) *Factory {
	f.base = base
	return f
}

// CreateResponder builds traced(cached(rate limited(guarded(provider)))).
// Cache hits skip the rate limiter; everything the session sees has passed
// the output policy.
func (f *Factory) CreateResponder(ctx context.Context) (ports.Responder, error) {
	base, err := f.createBase(ctx)
	if err != nil {
		return nil, err
	}
	provider := f.cfg.Provider
	tracer := f.CreateTracer()

	var r ports.Responder = NewGuarded(base, f.CreatePolicy(), provider)
	r = NewRateLimited(r, f.createRateLimiter(), provider)
	if f.cfg.CacheEnabled {
		r = NewCached(r, f.createCache(), f.cfg.CacheTTLSeconds, tracer)
	}
	r = NewTraced(r, tracer, provider)

	f.logger.Debug().
		Str("provider", provider).
		Str("model", f.cfg.Model).
		Bool("cache", f.cfg.CacheEnabled).
		Bool("rate_limit", f.cfg.RateLimitEnabled).
		Msg("responder created")
	return r, nil
}

func (f *Factory) createBase(ctx context.Context) (ports.Responder, error) {
	if f.base != nil {
		return f.base, nil
	}
	switch f.cfg.Provider {
	case adapters.GeminiProvider:
		return adapters.NewGemini(ctx, adapters.GeminiConfig{
			APIKey:            f.cfg.APIKey,
			Model:             f.cfg.Model,
			SystemInstruction: NewPromptBuilder(f.cfg.SystemPrompt).System(),
			Timeout:           f.cfg.Timeout,
			Temperature:       f.cfg.Temperature,
			MaxTokens:         f.cfg.MaxTokens,
		})
	case adapters.StaticProvider:
		return adapters.NewStatic(f.cfg.StaticReply), nil
	default:
		return nil, fmt.Errorf("unknown responder provider %q", f.cfg.Provider)
	}
}

// createCache creates a cache adapter from config.
func (f *Factory) createCache() ports.Cache {
	if !f.cfg.CacheEnabled {
		return noOpCache{}
	}
	return adapters.NewLRUCache(f.cfg.CacheCapacity)
}

// createRateLimiter creates a rate limiter adapter from config.
func (f *Factory) createRateLimiter() ports.RateLimiter {
	if !f.cfg.RateLimitEnabled {
		return noOpRateLimiter{}
	}
	return adapters.NewTokenBucket(f.cfg.RateLimitCapacity, f.cfg.RateLimitRefillRate)
}

// CreateTracer creates a tracer adapter from config.
func (f *Factory) CreateTracer() ports.Tracer {
	if !f.cfg.EnableTracing {
		return noOpTracer{}
	}
	return adapters.NewZerologTracer(f.logger)
}

// CreatePolicy creates the output policy from config.
func (f *Factory) CreatePolicy() *OutputPolicy {
	return NewOutputPolicy(f.cfg.MaxOutputSize, f.cfg.RedactSecrets)
}

type noOpCache struct{}

func (noOpCache) Get(ctx context.Context, key string) ([]byte, bool) { return nil, false }
func (noOpCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	return nil
}
func (noOpCache) Delete(ctx context.Context, key string) error { return nil }

type noOpRateLimiter struct{}

func (noOpRateLimiter) Allow(ctx context.Context, key string) error { return nil }

type noOpTracer struct{}

func (noOpTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	return ctx, func(err error) {}
}

func (noOpTracer) Event(ctx context.Context, name string, attrs map[string]any) {}

var (
	_ ports.Cache       = noOpCache{}
	_ ports.RateLimiter = noOpRateLimiter{}
	_ ports.Tracer      = noOpTracer{}
)
