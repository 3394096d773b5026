package main

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/helio-assistant/helio/classifier"
	"github.com/ZanzyTHEbar/helio-assistant/helio/generation"
	"github.com/ZanzyTHEbar/helio-assistant/helio/history"
	"github.com/ZanzyTHEbar/helio-assistant/helio/session"
)

// domainClassifier is implemented by both the static and the reloadable classifier.
type domainClassifier interface {
	classifier.Classifier
	Explain(query string) classifier.Verdict
	Vocabulary() classifier.Vocabulary
}

// buildClassifier returns the embedded vocabulary classifier, or a
// file-backed one when a vocabulary path is configured. With watch set the
// file is reloaded on change until ctx is done.
func (a *app) buildClassifier(ctx context.Context, watch bool) (domainClassifier, error) {
	path := a.cfg.Classifier.VocabularyPath
	if path == "" {
		return classifier.Default(), nil
	}

	r, err := classifier.NewReloadable(path, a.logger)
	if err != nil {
		return nil, err
	}
	if watch && a.cfg.Classifier.Watch {
		if err := r.Watch(ctx); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// buildSession wires classifier, responder chain and history index into a controller.
func (a *app) buildSession(ctx context.Context, watch bool) (*session.Controller, domainClassifier, error) {
	cls, err := a.buildClassifier(ctx, watch)
	if err != nil {
		return nil, nil, err
	}

	responder, err := generation.NewFactory(&a.cfg.Responder, a.logger).CreateResponder(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create responder: %w", err)
	}

	opts := []session.Option{session.WithLogger(a.logger)}
	if a.cfg.History.Enabled {
		idx, err := history.Open(ctx, a.cfg.History.DSN, a.logger)
		if err != nil {
			// Search falls back to scanning the log.
			a.logger.Warn().Err(err).Msg("history index unavailable")
		} else {
			opts = append(opts, session.WithHistory(idx))
		}
	}

	ctrl := session.New(cls, responder, opts...)
	a.logger.Debug().Str("session", ctrl.ID()).Msg("session started")
	return ctrl, cls, nil
}
