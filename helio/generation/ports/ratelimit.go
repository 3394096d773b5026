package generationports

import "context"

// RateLimiter bounds how often a provider is called.
type RateLimiter interface {
	// Allow consumes one unit for key or returns ErrRateLimited.
	Allow(ctx context.Context, key string) error
}
