package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// Entry is a stored value with the time it was last written.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Get returns the entry stored under key.
// Returns ErrNotFound if the key is absent.
func (s *Store) Get(ctx context.Context, key string) (Entry, error) {
	var (
		value string
		ms    int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT value, updated_at FROM kv WHERE key = ?
	`, key).Scan(&value, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %q: %w", key, err)
	}

	return Entry{Key: key, Value: value, UpdatedAt: time.UnixMilli(ms).UTC()}, nil
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, s.clock.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Keys returns all stored keys, most recently written first.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM kv ORDER BY updated_at DESC, key COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}
