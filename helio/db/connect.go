// Package db opens the per-session libsql database backing history search.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "github.com/tursodatabase/go-libsql"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SessionDB is a migrated libsql database that lives as long as one session.
type SessionDB struct {
	*sql.DB

	// FTS5 reports whether the full-text table is available in this build.
	FTS5 bool
}

// OpenSessionDB opens dsn, applies the embedded migrations and probes for FTS5.
// In-memory DSNs are pinned to a single connection so every query sees the
// same database.
func OpenSessionDB(ctx context.Context, dsn string, logger zerolog.Logger) (*SessionDB, error) {
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open libsql connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := verify(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	s := &SessionDB{DB: db}
	if _, err := db.ExecContext(ctx, "CREATE VIRTUAL TABLE IF NOT EXISTS history_fts USING fts5(question, answer)"); err != nil {
		logger.Warn().Err(err).Msg("FTS5 unavailable, history search falls back to LIKE")
	} else {
		s.FTS5 = true
		logger.Debug().Msg("FTS5 extension verified")
	}
	return s, nil
}

func verify(ctx context.Context, db *sql.DB) error {
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("basic connectivity test failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("basic connectivity test failed: unexpected result %d", result)
	}
	return nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectTurso, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
