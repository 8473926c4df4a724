// Package sqlitekv implements durable.Store on a SQLite database.
package sqlitekv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dshills/reflex-emulator/internal/durable"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// Store is a durable.Store persisting to a single SQLite table.
type Store struct {
	db     *sqlx.DB
	closed atomic.Bool
}

var _ durable.Store = (*Store)(nil)

// Open opens (or creates) the database at dsn and ensures the kv table exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitekv: open %s: %w", dsn, err)
	}
	// SQLite serializes writers; a single connection keeps :memory: databases
	// shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitekv: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Get implements durable.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := s.check(key); err != nil {
		return nil, false, err
	}

	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlitekv: get %q: %w", key, err)
	}
	return []byte(value), true, nil
}

// Set implements durable.Store.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.check(key); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("sqlitekv: set %q: %w", key, err)
	}
	return nil
}

// Delete implements durable.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.check(key); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlitekv: delete %q: %w", key, err)
	}
	return nil
}

// Keys implements durable.Store.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, durable.ErrClosed
	}

	keys := []string{}
	if err := s.db.SelectContext(ctx, &keys, `SELECT key FROM kv ORDER BY key`); err != nil {
		return nil, fmt.Errorf("sqlitekv: list keys: %w", err)
	}
	return keys, nil
}

// Close implements durable.Store.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) check(key string) error {
	if key == "" {
		return durable.ErrEmptyKey
	}
	if s.closed.Load() {
		return durable.ErrClosed
	}
	return nil
}
