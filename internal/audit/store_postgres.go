package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore persists entries in the access_log table. Filters are stored
// as JSONB so review queries can index into them.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	filters, err := json.Marshal(entry.Filters)
	if err != nil {
		return fmt.Errorf("marshal filters: %w", err)
	}

	const q = `
		INSERT INTO access_log (id, user_id, user_role, user_name, action, filters, client, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := s.db.ExecContext(ctx, q,
		entry.ID, entry.UserID, entry.UserRole, entry.UserName,
		entry.Action, filters, entry.Client, entry.RequestID, entry.Timestamp,
	); err != nil {
		return fmt.Errorf("insert access_log: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Entry, error) {
	const q = `
		SELECT id, user_id, user_role, user_name, action, filters, client, request_id, created_at
		FROM access_log
		ORDER BY created_at DESC
		LIMIT $1`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query access_log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			filters []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserRole, &e.UserName,
			&e.Action, &filters, &e.Client, &e.RequestID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan access_log: %w", err)
		}
		if len(filters) > 0 {
			if err := json.Unmarshal(filters, &e.Filters); err != nil {
				return nil, fmt.Errorf("unmarshal filters: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ Store = (*PostgresStore)(nil)
