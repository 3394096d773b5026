package adapters

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	ports "github.com/ZanzyTHEbar/helio-assistant/helio/generation/ports"
)

// GeminiProvider is the provider name reported in generation errors.
const GeminiProvider = "gemini"

// GeminiConfig configures the Gemini responder.
type GeminiConfig struct {
	APIKey            string
	Model             string
	SystemInstruction string
	Timeout           time.Duration
	Temperature       float32
	MaxTokens         int
}

// contentGenerator is the part of genai.Models the responder calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini answers queries with a Google Gemini model.
type Gemini struct {
	models contentGenerator
	cfg    GeminiConfig
}

// NewGemini creates a Gemini API client. An empty APIKey lets the SDK fall
// back to GOOGLE_API_KEY / GEMINI_API_KEY.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model name is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return newGemini(client.Models, cfg), nil
}

func newGemini(models contentGenerator, cfg GeminiConfig) *Gemini {
	return &Gemini{models: models, cfg: cfg}
}

// Generate implements ports.Responder.
func (g *Gemini) Generate(ctx context.Context, query string) (string, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	temp := g.cfg.Temperature
	genCfg := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if g.cfg.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(g.cfg.MaxTokens)
	}
	if g.cfg.SystemInstruction != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(g.cfg.SystemInstruction, genai.RoleUser)
	}

	contents := []*genai.Content{genai.NewContentFromText(query, genai.RoleUser)}

	res, err := g.models.GenerateContent(ctx, g.cfg.Model, contents, genCfg)
	if err != nil {
		return "", &ports.GenerationError{Provider: GeminiProvider, Err: err}
	}

	text := res.Text()
	if text == "" {
		return "", &ports.GenerationError{Provider: GeminiProvider, Err: ports.ErrEmptyResponse}
	}
	return text, nil
}

var _ ports.Responder = (*Gemini)(nil)
