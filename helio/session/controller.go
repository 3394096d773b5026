// Package session runs the question/answer cycle for one user session.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/helio-assistant/helio/chatlog"
	"github.com/ZanzyTHEbar/helio-assistant/helio/classifier"
	"github.com/ZanzyTHEbar/helio-assistant/helio/export"
	ports "github.com/ZanzyTHEbar/helio-assistant/helio/generation/ports"
	"github.com/ZanzyTHEbar/helio-assistant/helio/history"
)

// HistoryIndex is the search index a controller mirrors its log into.
// *history.Index implements it.
type HistoryIndex interface {
	Add(ctx context.Context, position int, e chatlog.Entry) error
	Search(ctx context.Context, text string, k int) ([]history.Hit, error)
	Reset(ctx context.Context) error
	Close() error
}

// Controller owns one session's log and serializes the requests against it.
type Controller struct {
	id         string
	classifier classifier.Classifier
	responder  ports.Responder
	log        *chatlog.Log
	index      HistoryIndex
	logger     zerolog.Logger

	// mu serializes Handle, Import and Reset. Readers use the log's own lock.
	mu sync.Mutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithHistory mirrors answered entries into index for Search.
func WithHistory(index HistoryIndex) Option {
	return func(c *Controller) { c.index = index }
}

// WithLog starts the session from an existing log instead of an empty one.
func WithLog(log *chatlog.Log) Option {
	return func(c *Controller) { c.log = log }
}

// New creates a controller with a fresh session ID.
func New(cls classifier.Classifier, responder ports.Responder, opts ...Option) *Controller {
	c := &Controller{
		id:         uuid.NewString(),
		classifier: cls,
		responder:  responder,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = chatlog.New()
	}
	c.logger = c.logger.With().Str("session", c.id).Logger()
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Handle runs one query through classify → generate → append. It always
// returns an Outcome; the log changes only when the Outcome is Answered.
func (c *Controller) Handle(ctx context.Context, query string) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(query) == "" {
		c.logger.Debug().Msg("rejected empty query")
		return rejected(ErrEmptyInput)
	}

	if !c.classifier.Classify(query) {
		c.logger.Info().Str("query", query).Msg("rejected out-of-domain query")
		return rejected(ErrOutOfDomain)
	}

	answer, err := c.generate(ctx, query)
	if err != nil {
		c.logger.Warn().Err(err).Msg("responder failed")
		return failed(err)
	}

	entry := c.log.Append(query, answer)
	c.indexEntry(ctx, c.log.Len()-1, entry)
	c.logger.Info().Int("entries", c.log.Len()).Msg("query answered")
	return answered(entry)
}

// generate calls the responder and turns every failure, panics included,
// into a *ports.GenerationError.
func (c *Controller) generate(ctx context.Context, query string) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			answer = ""
			err = &ports.GenerationError{Err: fmt.Errorf("responder panicked: %v", r)}
		}
	}()
	answer, err = c.responder.Generate(ctx, query)
	if err != nil {
		return "", ports.AsGenerationError("", err)
	}
	return answer, nil
}

func (c *Controller) indexEntry(ctx context.Context, position int, e chatlog.Entry) {
	if c.index == nil {
		return
	}
	if err := c.index.Add(ctx, position, e); err != nil {
		c.logger.Error().Err(err).Int("position", position).Msg("failed to index entry")
	}
}

// Entries returns the log in chronological order.
func (c *Controller) Entries() []chatlog.Entry { return c.log.Entries() }

// Recent returns the log most recent first.
func (c *Controller) Recent() []chatlog.Entry { return c.log.Reversed() }

// Len returns the number of answered queries.
func (c *Controller) Len() int { return c.log.Len() }

// EntryAt returns the entry at chronological position i.
func (c *Controller) EntryAt(i int) (chatlog.Entry, error) { return c.log.EntryAt(i) }

// Export snapshots the log. It may run while a Handle call is in flight.
func (c *Controller) Export() export.Document { return export.Export(c.log) }

// Import appends a previously exported document to the log.
func (c *Controller) Import(ctx context.Context, doc export.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.log.Len()
	export.ImportInto(c.log, doc)
	for i, r := range doc {
		c.indexEntry(ctx, start+i, chatlog.Entry{Question: r.Question, Answer: r.Answer})
	}
	c.logger.Info().Int("imported", len(doc)).Int("entries", c.log.Len()).Msg("history imported")
}

// Reset clears the log and the search index.
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.Reset()
	if c.index != nil {
		if err := c.index.Reset(ctx); err != nil {
			c.logger.Error().Err(err).Msg("failed to reset history index")
		}
	}
	c.logger.Info().Msg("session reset")
}

// Search returns up to k entries matching text. Without a history index the
// log is scanned for case-insensitive substrings, newest first.
func (c *Controller) Search(ctx context.Context, text string, k int) ([]history.Hit, error) {
	if c.index != nil {
		return c.index.Search(ctx, text, k)
	}

	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" || k <= 0 {
		return nil, nil
	}
	entries := c.log.Entries()
	var hits []history.Hit
	for i := len(entries) - 1; i >= 0 && len(hits) < k; i-- {
		e := entries[i]
		if strings.Contains(strings.ToLower(e.Question), needle) || strings.Contains(strings.ToLower(e.Answer), needle) {
			hits = append(hits, history.Hit{Position: i, Entry: e})
		}
	}
	return hits, nil
}

// Close releases the history index.
func (c *Controller) Close() error {
	if c.index == nil {
		return nil
	}
	return c.index.Close()
}
