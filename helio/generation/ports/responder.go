package generationports

import (
	"context"
	"errors"
	"fmt"
)

// Responder produces an answer for an admitted query. It is the only
// operation in a session that may block for a long time.
type Responder interface {
	Generate(ctx context.Context, query string) (string, error)
}

// ResponderFunc adapts a plain function to the Responder interface.
type ResponderFunc func(ctx context.Context, query string) (string, error)

func (f ResponderFunc) Generate(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

// ErrEmptyResponse is reported when a provider answers with no text.
var ErrEmptyResponse = errors.New("empty response")

// ErrRateLimited is reported when a call is refused by the rate limiter.
var ErrRateLimited = errors.New("rate limit exceeded")

// GenerationError is the single failure kind a Responder reports to its callers.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("generation failed: %v", e.Err)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// AsGenerationError returns err unchanged when it already is a
// GenerationError, and wraps it for provider otherwise.
func AsGenerationError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var ge *GenerationError
	if errors.As(err, &ge) {
		return err
	}
	return &GenerationError{Provider: provider, Err: err}
}
