package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/astrachat/astrachat/internal/history"
)

// Store keeps history entries in the query_history table.
type Store struct {
	db    *sql.DB
	owned bool
}

// NewStore wraps a pool the caller keeps ownership of.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the pool when the Store opened it through Connect.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping history db: %w", err)
	}
	return nil
}

func (s *Store) Record(ctx context.Context, entry history.Entry) error {
	query := `
INSERT INTO query_history (entry_id, principal, message, sql_text, status, error_text, response_bytes, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if _, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.Principal,
		entry.Message,
		entry.SQL,
		string(entry.Status),
		entry.Error,
		entry.ResponseBytes,
		entry.DurationMs,
		entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]history.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT entry_id, principal, message, sql_text, status, error_text, response_bytes, duration_ms, created_at
FROM query_history
ORDER BY created_at DESC, entry_id DESC
LIMIT $1`, history.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list history entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]history.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history entries: %w", err)
	}
	return entries, nil
}

func (s *Store) Get(ctx context.Context, id string) (history.Entry, error) {
	query := `
SELECT entry_id, principal, message, sql_text, status, error_text, response_bytes, duration_ms, created_at
FROM query_history
WHERE entry_id = $1`

	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return history.Entry{}, history.ErrNotFound
		}
		return history.Entry{}, fmt.Errorf("get history entry: %w", err)
	}
	return entry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (history.Entry, error) {
	var entry history.Entry
	var status string
	if err := row.Scan(
		&entry.ID,
		&entry.Principal,
		&entry.Message,
		&entry.SQL,
		&status,
		&entry.Error,
		&entry.ResponseBytes,
		&entry.DurationMs,
		&entry.CreatedAt,
	); err != nil {
		return history.Entry{}, err
	}
	entry.Status = history.Status(status)
	entry.CreatedAt = entry.CreatedAt.UTC()
	return entry, nil
}
