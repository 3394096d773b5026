package adapters

import (
	"context"
	"fmt"
	"strings"

	ports "github.com/ZanzyTHEbar/helio-assistant/helio/generation/ports"
)

// StaticProvider is the provider name reported in generation errors.
const StaticProvider = "static"

// Static is an offline responder. With a reply template it answers every
// query the same way; "%s" in the template is replaced by the query.
type Static struct {
	reply string
}

// NewStatic creates a canned responder.
func NewStatic(reply string) *Static {
	return &Static{reply: reply}
}

func (s *Static) Generate(ctx context.Context, query string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &ports.GenerationError{Provider: StaticProvider, Err: err}
	}
	if s.reply == "" {
		return fmt.Sprintf("No model is configured. You asked: %q", query), nil
	}
	if strings.Contains(s.reply, "%s") {
		return strings.ReplaceAll(s.reply, "%s", query), nil
	}
	return s.reply, nil
}

var _ ports.Responder = (*Static)(nil)
