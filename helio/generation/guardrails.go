package generation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	ports "github.com/ZanzyTHEbar/helio-assistant/helio/generation/ports"
)

// OutputPolicy validates and sanitizes model output before it reaches the log.
type OutputPolicy struct {
	maxOutputSize int              // bytes, 0 disables
	redact        bool             // mask credentials in output
	outputFilters []*regexp.Regexp // patterns masked when redact is set
}

// NewOutputPolicy creates a policy with the default credential filters.
func NewOutputPolicy(maxOutputSize int, redact bool) *OutputPolicy {
	return &OutputPolicy{
		maxOutputSize: maxOutputSize,
		redact:        redact,
		outputFilters: []*regexp.Regexp{
			regexp.MustCompile(`(?i)password\s*[:=]\s*\S+`),
			regexp.MustCompile(`(?i)api[_-]?key\s*[:=]\s*\S+`),
			regexp.MustCompile(`(?i)secret\s*[:=]\s*\S+`),
			regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`),
		},
	}
}

// Apply returns the sanitized output or an error when it violates the policy.
func (p *OutputPolicy) Apply(output string) (string, error) {
	if strings.TrimSpace(output) == "" {
		return "", ports.ErrEmptyResponse
	}
	if p.maxOutputSize > 0 && len(output) > p.maxOutputSize {
		return "", fmt.Errorf("output size %d exceeds maximum %d", len(output), p.maxOutputSize)
	}
	if p.redact {
		output = p.Sanitize(output)
	}
	return output, nil
}

// Sanitize masks sensitive information in output.
func (p *OutputPolicy) Sanitize(output string) string {
	for _, filter := range p.outputFilters {
		output = filter.ReplaceAllString(output, "[REDACTED]")
	}
	return output
}

// Guarded applies an OutputPolicy to every answer of the wrapped responder.
type Guarded struct {
	next     ports.Responder
	policy   *OutputPolicy
	provider string
}

// NewGuarded wraps next with policy.
func NewGuarded(next ports.Responder, policy *OutputPolicy, provider string) *Guarded {
	return &Guarded{next: next, policy: policy, provider: provider}
}

func (g *Guarded) Generate(ctx context.Context, query string) (string, error) {
	out, err := g.next.Generate(ctx, query)
	if err != nil {
		return "", ports.AsGenerationError(g.provider, err)
	}
	out, err = g.policy.Apply(out)
	if err != nil {
		return "", &ports.GenerationError{Provider: g.provider, Err: err}
	}
	return out, nil
}

var _ ports.Responder = (*Guarded)(nil)
