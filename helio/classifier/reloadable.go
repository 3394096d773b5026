package classifier

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Reloadable serves classifications from a vocabulary file that can be
// swapped at runtime. Each call sees one complete vocabulary.
type Reloadable struct {
	path    string
	current atomic.Pointer[Lexical]
	logger  zerolog.Logger
}

// NewReloadable loads the vocabulary at path.
func NewReloadable(path string, logger zerolog.Logger) (*Reloadable, error) {
	r := &Reloadable{
		path:   filepath.Clean(path),
		logger: logger.With().Str("component", "classifier").Str("vocabulary", path).Logger(),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reloadable) Classify(query string) bool {
	return r.current.Load().Classify(query)
}

func (r *Reloadable) Explain(query string) Verdict {
	return r.current.Load().Explain(query)
}

// Vocabulary returns the vocabulary currently in use.
func (r *Reloadable) Vocabulary() Vocabulary {
	return r.current.Load().Vocabulary()
}

// Reload re-reads the vocabulary file. On failure the previous vocabulary stays active.
func (r *Reloadable) Reload() error {
	v, err := LoadVocabulary(r.path)
	if err != nil {
		return err
	}
	l, err := NewLexical(v)
	if err != nil {
		return fmt.Errorf("vocabulary %s: %w", r.path, err)
	}
	r.current.Store(l)
	r.logger.Info().
		Int("terms", len(v.Terms)).
		Int("phrases", len(v.Phrases)).
		Int("fragments", len(v.Fragments)).
		Msg("vocabulary loaded")
	return nil
}

// Watch reloads the vocabulary whenever its file changes, until ctx is done.
// The parent directory is watched so editors that replace the file by rename
// are picked up too.
func (r *Reloadable) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create vocabulary watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(r.path), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != r.path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if err := r.Reload(); err != nil {
					r.logger.Error().Err(err).Msg("vocabulary reload failed, keeping previous vocabulary")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warn().Err(err).Msg("vocabulary watcher error")
			}
		}
	}()

	return nil
}

var _ Classifier = (*Reloadable)(nil)
