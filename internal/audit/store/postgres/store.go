package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"shopflow/internal/audit"
	id "shopflow/pkg/domain"
)

// Store persists audit entries in PostgreSQL. The audit_entries table is
// insert-only; no code path issues UPDATE or DELETE against it.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const entryColumns = `id, occurred_at, actor_id, actor_email, action, resource_type, resource_id,
	   before_status, after_status, client_ip, user_agent, device, extra`

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	var extra []byte
	if len(entry.Extra) > 0 {
		var err error
		extra, err = json.Marshal(entry.Extra)
		if err != nil {
			return fmt.Errorf("marshal audit extra: %w", err)
		}
	}

	query := `
		INSERT INTO audit_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		entry.Timestamp,
		uuid.UUID(entry.ActorID),
		nullString(entry.ActorEmail),
		string(entry.Action),
		entry.ResourceType.String(),
		uuid.UUID(entry.ResourceID),
		entry.Before,
		entry.After,
		nullString(entry.Context.IP),
		nullString(entry.Context.UserAgent),
		nullString(entry.Context.Device),
		extraOrNil(extra),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListByResource(ctx context.Context, resourceType id.EntityType, resourceID id.EntityID) ([]audit.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM audit_entries
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY occurred_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, resourceType.String(), uuid.UUID(resourceID))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (s *Store) Search(ctx context.Context, filters audit.Filters, limit, offset int) (audit.SearchResult, error) {
	where, args := buildWhere(filters)

	countQuery := `SELECT COUNT(*) FROM audit_entries` + where
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return audit.SearchResult{}, fmt.Errorf("count audit entries: %w", err)
	}

	pageQuery := fmt.Sprintf(`
		SELECT `+entryColumns+`
		FROM audit_entries%s
		ORDER BY occurred_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, pageQuery, append(args, limit, offset)...)
	if err != nil {
		return audit.SearchResult{}, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	items, err := scanEntries(rows)
	if err != nil {
		return audit.SearchResult{}, err
	}
	return audit.SearchResult{Items: items, Total: total}, nil
}

func buildWhere(filters audit.Filters) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filters.ResourceType != nil {
		add("resource_type = $%d", filters.ResourceType.String())
	}
	if filters.ResourceID != nil {
		add("resource_id = $%d", uuid.UUID(*filters.ResourceID))
	}
	if filters.ActorID != nil {
		add("actor_id = $%d", uuid.UUID(*filters.ActorID))
	}
	if filters.Action != nil {
		add("action = $%d", string(*filters.Action))
	}
	if filters.FromDate != nil {
		add("occurred_at >= $%d", *filters.FromDate)
	}
	if filters.ToDate != nil {
		add("occurred_at <= $%d", *filters.ToDate)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry

	for rows.Next() {
		var (
			entry      audit.Entry
			entryID    uuid.UUID
			actorID    uuid.UUID
			resourceID uuid.UUID
			rt         string
			action     string
			email      sql.NullString
			ip         sql.NullString
			userAgent  sql.NullString
			device     sql.NullString
			extra      []byte
		)

		err := rows.Scan(
			&entryID,
			&entry.Timestamp,
			&actorID,
			&email,
			&action,
			&rt,
			&resourceID,
			&entry.Before,
			&entry.After,
			&ip,
			&userAgent,
			&device,
			&extra,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		entry.ID = id.AuditEntryID(entryID)
		entry.ActorID = id.ActorID(actorID)
		entry.ResourceID = id.EntityID(resourceID)
		entry.ResourceType = id.EntityType(rt)
		entry.Action = audit.Action(action)
		entry.ActorEmail = email.String
		entry.Context = audit.Context{IP: ip.String, UserAgent: userAgent.String, Device: device.String}
		if len(extra) > 0 {
			if err := json.Unmarshal(extra, &entry.Extra); err != nil {
				return nil, fmt.Errorf("unmarshal audit extra: %w", err)
			}
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func extraOrNil(extra []byte) any {
	if len(extra) == 0 {
		return nil
	}
	return extra
}
