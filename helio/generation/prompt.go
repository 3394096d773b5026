// Package generation wires the responder chain that answers admitted queries.
package generation

import (
	"strings"
)

const solarSystemPrompt = `
You are Helio, an assistant that answers questions about solar energy.

Scope:
- Photovoltaic and solar thermal technology, installation, sizing, costs, incentives, grid connection and maintenance.
- Questions reach you only after a topic filter, but if one is clearly unrelated to solar energy, say so briefly instead of answering.

Style:
- Answer in the same language as the user.
- Be concise: a short paragraph or a few bullet points.
- Give figures with units and say when a number depends on region or year.
- Use Markdown for lists and tables.
`

// PromptBuilder produces the system instruction sent with every query.
type PromptBuilder struct {
	extra string
}

// NewPromptBuilder returns a builder. extra is appended to the built-in
// instruction, typically from responder.system_prompt.
func NewPromptBuilder(extra string) *PromptBuilder {
	return &PromptBuilder{extra: extra}
}

// System returns the normalized system instruction.
func (b *PromptBuilder) System() string {
	parts := []string{normalize(solarSystemPrompt)}
	if extra := normalize(b.extra); extra != "" {
		parts = append(parts, extra)
	}
	return strings.Join(parts, "\n\n")
}

// normalize trims and unifies newlines so equivalent prompts compare equal.
func normalize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}

// CacheKey maps a query to the key used by the response cache. Case and
// whitespace differences do not produce distinct keys.
func CacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
