package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shopflow/internal/workorder"
	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
)

// Store persists work orders in PostgreSQL. UpdateStatus is a single
// conditional UPDATE; the WHERE clause on the current status is what makes
// concurrent transitions lose instead of overwriting each other.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const orderColumns = `id, title, description, customer_name, status, created_by, created_at, updated_at`

func (s *Store) Create(ctx context.Context, order workorder.WorkOrder) error {
	query := `
		INSERT INTO work_orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(order.ID),
		order.Title,
		order.Description,
		order.CustomerName,
		order.Status.String(),
		uuid.UUID(order.CreatedBy),
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert work order: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, entityID id.EntityID) (*workorder.WorkOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM work_orders WHERE id = $1`
	order, err := scanOrder(s.db.QueryRowContext(ctx, query, uuid.UUID(entityID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.New(dErrors.CodeNotFound, "work order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("select work order: %w", err)
	}
	return order, nil
}

func (s *Store) List(ctx context.Context, filters workorder.Filters) ([]workorder.WorkOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM work_orders`
	args := []any{}
	if filters.Status != nil {
		query += ` WHERE status = $1`
		args = append(args, filters.Status.String())
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list work orders: %w", err)
	}
	defer rows.Close()

	orders := []workorder.WorkOrder{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work orders: %w", err)
	}
	return orders, nil
}

func (s *Store) UpdateStatus(ctx context.Context, entityID id.EntityID, expectedCurrent, newStatus id.StatusCode) (id.StatusCode, error) {
	query := `
		UPDATE work_orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	res, err := s.db.ExecContext(ctx, query,
		newStatus.String(),
		time.Now().UTC(),
		uuid.UUID(entityID),
		expectedCurrent.String(),
	)
	if err != nil {
		return "", fmt.Errorf("update work order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("update work order status: %w", err)
	}
	if affected == 1 {
		return newStatus, nil
	}

	// The conditional write matched nothing: either the order is gone or
	// someone else moved it first. Re-read to tell the two apart.
	var current string
	err = s.db.QueryRowContext(ctx,
		`SELECT status FROM work_orders WHERE id = $1`, uuid.UUID(entityID),
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return "", dErrors.New(dErrors.CodeNotFound, "work order not found")
	}
	if err != nil {
		return "", fmt.Errorf("read current work order status: %w", err)
	}
	return id.StatusCode(current), dErrors.New(dErrors.CodeConflict,
		fmt.Sprintf("status is %s, expected %s", current, expectedCurrent))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*workorder.WorkOrder, error) {
	var (
		orderID   uuid.UUID
		createdBy uuid.UUID
		status    string
		order     workorder.WorkOrder
	)
	err := row.Scan(
		&orderID,
		&order.Title,
		&order.Description,
		&order.CustomerName,
		&status,
		&createdBy,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.ID = id.EntityID(orderID)
	order.CreatedBy = id.ActorID(createdBy)
	order.Status = id.StatusCode(status)
	return &order, nil
}
