package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shopflow/internal/notification"
	id "shopflow/pkg/domain"
)

// Store persists notifications in PostgreSQL. Deduplication rides on the
// unique index over dedup_key: concurrent identical creates race at the
// constraint, exactly one row wins, and losers read the winner's ID back.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateIfAbsent(ctx context.Context, record notification.Record) (id.NotificationID, bool, error) {
	var entityID any
	if record.EntityID != nil && !record.EntityID.IsNil() {
		entityID = uuid.UUID(*record.EntityID)
	}

	insert := `
		INSERT INTO notifications (id, type, entity_id, dedup_key, notify_at, created_at, created_by, title, message, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)
		ON CONFLICT (dedup_key) DO NOTHING
		RETURNING id
	`
	var insertedID uuid.UUID
	err := s.db.QueryRowContext(ctx, insert,
		uuid.UUID(record.ID),
		record.Type,
		entityID,
		record.DedupKey,
		nullTime(record.NotifyAt),
		record.CreatedAt,
		uuid.UUID(record.CreatedBy),
		record.Title,
		record.Message,
	).Scan(&insertedID)
	if err == nil {
		return id.NotificationID(insertedID), true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return id.NotificationID{}, false, fmt.Errorf("insert notification: %w", err)
	}

	// Lost the race (or the record already existed). Rows are never deleted,
	// so the winner is always readable.
	var existingID uuid.UUID
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM notifications WHERE dedup_key = $1`, record.DedupKey,
	).Scan(&existingID)
	if err != nil {
		return id.NotificationID{}, false, fmt.Errorf("find deduplicated notification: %w", err)
	}
	return id.NotificationID(existingID), false, nil
}

const recordColumns = `id, type, entity_id, dedup_key, notify_at, created_at, created_by, title, message, is_read`

func (s *Store) FindByID(ctx context.Context, notificationID id.NotificationID) (*notification.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM notifications WHERE id = $1`, uuid.UUID(notificationID))

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return record, nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]notification.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM notifications
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var records []notification.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return records, nil
}

func (s *Store) MarkRead(ctx context.Context, notificationID id.NotificationID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1`, uuid.UUID(notificationID))
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *Store) CountUnread(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE NOT is_read`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*notification.Record, error) {
	var (
		record    notification.Record
		recordID  uuid.UUID
		entityID  *uuid.UUID
		notifyAt  sql.NullTime
		createdBy uuid.UUID
	)
	err := row.Scan(
		&recordID,
		&record.Type,
		&entityID,
		&record.DedupKey,
		&notifyAt,
		&record.CreatedAt,
		&createdBy,
		&record.Title,
		&record.Message,
		&record.IsRead,
	)
	if err != nil {
		return nil, err
	}

	record.ID = id.NotificationID(recordID)
	record.CreatedBy = id.ActorID(createdBy)
	if entityID != nil {
		eid := id.EntityID(*entityID)
		record.EntityID = &eid
	}
	if notifyAt.Valid {
		record.NotifyAt = &notifyAt.Time
	}
	return &record, nil
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}
