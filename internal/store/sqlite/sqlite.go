// Package sqlite persists the destination set in a SQLite table.
package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/MrSnakeDoc/chatrelay/internal/store/codec"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS destinations (
	position INTEGER NOT NULL,
	chat_id  TEXT    NOT NULL PRIMARY KEY
);`

// Store keeps one row per destination, ordered by position
type Store struct {
	db   *sqlx.DB
	path string
}

// Open connects to the database file at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite store path is required")
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	// SQLite serialises writers anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file in use
func (s *Store) Path() string { return s.path }

// Name identifies the backend in logs and health output
func (s *Store) Name() string { return "sqlite" }

// Load returns ids in insertion order.
func (s *Store) Load(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `SELECT chat_id FROM destinations ORDER BY position`); err != nil {
		return nil, fmt.Errorf("failed to load destinations: %w", err)
	}
	return codec.Normalize(ids), nil
}

// Save replaces the table content in a single transaction.
func (s *Store) Save(ctx context.Context, ids []string) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM destinations`); err != nil {
		return fmt.Errorf("failed to clear destinations: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO destinations (position, chat_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, id := range codec.Normalize(ids) {
		if _, err = stmt.ExecContext(ctx, i, id); err != nil {
			return fmt.Errorf("failed to insert destination %s: %w", id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit destinations: %w", err)
	}
	return nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
