// Package pgstore implements the record store on a Postgres kv_records table.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"resumeai-backend/internal/shared/storage/kv"
)

// Store implements kv.Store on Postgres.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle. Schema is managed by db.RunMigrations.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_records WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select kv record: %w", err)
	}
	return value, true, nil
}

// Set upserts value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO kv_records (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, key, value)
	if err != nil {
		return fmt.Errorf("upsert kv record: %w", err)
	}
	return nil
}

// List returns records whose key matches the glob pattern, ordered by key.
func (s *Store) List(ctx context.Context, pattern string, includeValues bool) ([]kv.Item, error) {
	query := `SELECT key FROM kv_records WHERE key LIKE $1 ESCAPE '\' ORDER BY key`
	if includeValues {
		query = `SELECT key, value FROM kv_records WHERE key LIKE $1 ESCAPE '\' ORDER BY key`
	}

	rows, err := s.db.QueryContext(ctx, query, globToLike(pattern))
	if err != nil {
		return nil, fmt.Errorf("list kv records: %w", err)
	}
	defer rows.Close()

	var items []kv.Item
	for rows.Next() {
		var item kv.Item
		if includeValues {
			err = rows.Scan(&item.Key, &item.Value)
		} else {
			err = rows.Scan(&item.Key)
		}
		if err != nil {
			return nil, fmt.Errorf("scan kv record: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kv records: %w", err)
	}
	return items, nil
}

// Del removes key and reports whether a row was deleted.
func (s *Store) Del(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM kv_records WHERE key = $1`, key)
	if err != nil {
		return false, fmt.Errorf("delete kv record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Flush removes every record.
func (s *Store) Flush(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_records`); err != nil {
		return fmt.Errorf("flush kv records: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// globToLike translates '*' and '?' into LIKE wildcards, escaping literal LIKE metacharacters.
func globToLike(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var _ kv.Store = (*Store)(nil)
