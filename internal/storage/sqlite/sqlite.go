// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/foresightlab/signalhub/internal/apperr"
	"github.com/foresightlab/signalhub/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path. It creates the
// parent directories and runs migrations automatically.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets readers proceed while a writer commits; a single writer
	// connection avoids SQLITE_BUSY under concurrent mutations.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reader exposes the underlying querier for the single-statement read
// paths (access resolution and search).
func (s *Store) Reader() storage.Querier {
	return s.db
}

// UpsertLocation inserts or updates a location used for facet expansion.
func (s *Store) UpsertLocation(ctx context.Context, name, region, bureau string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO locations (name, region, bureau) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET region = excluded.region, bureau = excluded.bureau`,
		name, region, bureau,
	)
	return wrap("upsert location", err)
}

// UpsertUnit inserts or updates an organizational unit.
func (s *Store) UpsertUnit(ctx context.Context, name, region string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO units (name, region) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET region = excluded.region`,
		name, region,
	)
	return wrap("upsert unit", err)
}

// wrap classifies a database error into the shared taxonomy, keeping the
// operation name in the message.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return apperr.NotFoundf("%s", op)
	}
	return apperr.FromStore(fmt.Errorf("%s: %w", op, err))
}

// placeholders returns "?, ?, ..." with n placeholders for IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// int64Args converts ids to driver arguments.
func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
