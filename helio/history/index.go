// Package history provides keyword search over the answered questions of
// one session. The index is rebuilt from nothing for every session.
package history

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/helio-assistant/helio/chatlog"
	"github.com/ZanzyTHEbar/helio-assistant/helio/db"
)

// Hit is a search result; Position is the entry's chronological index in the log.
type Hit struct {
	Position int
	Entry    chatlog.Entry
}

// Index mirrors a chatlog into a session database for search.
type Index struct {
	db     *db.SessionDB
	logger zerolog.Logger
}

// Open creates an index on a fresh session database.
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*Index, error) {
	logger = logger.With().Str("component", "history").Logger()
	sdb, err := db.OpenSessionDB(ctx, dsn, logger)
	if err != nil {
		return nil, err
	}
	return &Index{db: sdb, logger: logger}, nil
}

// FullText reports whether searches use FTS5 ranking.
func (x *Index) FullText() bool {
	return x.db.FTS5
}

// Add indexes the entry stored at position.
func (x *Index) Add(ctx context.Context, position int, e chatlog.Entry) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history insert: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO history_entries (position, question, answer) VALUES (?, ?, ?)",
		position, e.Question, e.Answer); err != nil {
		return fmt.Errorf("failed to index entry %d: %w", position, err)
	}
	if x.db.FTS5 {
		if _, err := tx.ExecContext(ctx, "DELETE FROM history_fts WHERE rowid = ?", position); err != nil {
			return fmt.Errorf("failed to index entry %d: %w", position, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO history_fts (rowid, question, answer) VALUES (?, ?, ?)",
			position, e.Question, e.Answer); err != nil {
			return fmt.Errorf("failed to index entry %d: %w", position, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history insert: %w", err)
	}
	return nil
}

// Search returns up to k entries mentioning any keyword of text. With FTS5
// results are ranked by relevance, otherwise newest first.
func (x *Index) Search(ctx context.Context, text string, k int) ([]Hit, error) {
	terms := keywords(text)
	if len(terms) == 0 || k <= 0 {
		return nil, nil
	}
	if x.db.FTS5 {
		return x.searchFTS(ctx, terms, k)
	}
	return x.searchLike(ctx, terms, k)
}

func (x *Index) searchFTS(ctx context.Context, terms []string, k int) ([]Hit, error) {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + t + `"*`
	}
	return x.query(ctx,
		"SELECT rowid, question, answer FROM history_fts WHERE history_fts MATCH ? ORDER BY rank, rowid DESC LIMIT ?",
		strings.Join(quoted, " OR "), k)
}

func (x *Index) searchLike(ctx context.Context, terms []string, k int) ([]Hit, error) {
	conds := make([]string, 0, len(terms))
	args := make([]any, 0, 2*len(terms)+1)
	for _, t := range terms {
		conds = append(conds, `(lower(question) LIKE ? ESCAPE '\' OR lower(answer) LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(t) + "%"
		args = append(args, pattern, pattern)
	}
	args = append(args, k)
	q := "SELECT position, question, answer FROM history_entries WHERE " +
		strings.Join(conds, " OR ") + " ORDER BY position DESC LIMIT ?"
	return x.query(ctx, q, args...)
}

func (x *Index) query(ctx context.Context, q string, args ...any) ([]Hit, error) {
	rows, err := x.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search history: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Position, &h.Entry.Question, &h.Entry.Answer); err != nil {
			return nil, fmt.Errorf("failed to scan history hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history hits: %w", err)
	}
	return hits, nil
}

// Reset removes every indexed entry.
func (x *Index) Reset(ctx context.Context) error {
	if _, err := x.db.ExecContext(ctx, "DELETE FROM history_entries"); err != nil {
		return fmt.Errorf("failed to reset history: %w", err)
	}
	if x.db.FTS5 {
		if _, err := x.db.ExecContext(ctx, "DELETE FROM history_fts"); err != nil {
			return fmt.Errorf("failed to reset history: %w", err)
		}
	}
	return nil
}

// Close discards the session database.
func (x *Index) Close() error {
	return x.db.Close()
}

// keywords lowercases text and keeps its letter/digit runs.
func keywords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
