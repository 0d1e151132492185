package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopflow/internal/settings"
	dErrors "shopflow/pkg/domain-errors"
)

// Store persists settings documents in PostgreSQL. The group key is unique;
// CreateIfAbsent leans on ON CONFLICT DO NOTHING so concurrent seeders
// resolve to one writer.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, group string) (*settings.Record, error) {
	query := `SELECT group_key, document, version, updated_at FROM settings WHERE group_key = $1`

	var record settings.Record
	var doc []byte
	err := s.db.QueryRowContext(ctx, query, group).
		Scan(&record.Group, &doc, &record.Version, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.New(dErrors.CodeNotFound, "settings group not found: "+group)
	}
	if err != nil {
		return nil, fmt.Errorf("select settings group: %w", err)
	}
	record.Document = json.RawMessage(doc)
	return &record, nil
}

func (s *Store) Save(ctx context.Context, group string, doc json.RawMessage) (int, error) {
	query := `
		INSERT INTO settings (group_key, document, version, updated_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (group_key)
		DO UPDATE SET document = EXCLUDED.document,
		              version = settings.version + 1,
		              updated_at = EXCLUDED.updated_at
		RETURNING version
	`
	var version int
	err := s.db.QueryRowContext(ctx, query, group, []byte(doc), time.Now().UTC()).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("upsert settings group: %w", err)
	}
	return version, nil
}

func (s *Store) CreateIfAbsent(ctx context.Context, group string, doc json.RawMessage) (bool, error) {
	query := `
		INSERT INTO settings (group_key, document, version, updated_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (group_key) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query, group, []byte(doc), time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("seed settings group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("seed settings group: %w", err)
	}
	return affected == 1, nil
}
