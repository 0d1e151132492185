package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"shopflow/internal/workorder"
	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
)

// Store keeps work orders in memory. A single lock spans the status
// comparison and the write so UpdateStatus is atomic, mirroring the
// conditional UPDATE the PostgreSQL store relies on.
type Store struct {
	mu     sync.Mutex
	orders map[id.EntityID]*workorder.WorkOrder
}

func New() *Store {
	return &Store{orders: make(map[id.EntityID]*workorder.WorkOrder)}
}

func (s *Store) Create(_ context.Context, order workorder.WorkOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return fmt.Errorf("work order %s already exists", order.ID)
	}
	stored := order
	s.orders[order.ID] = &stored
	return nil
}

func (s *Store) FindByID(_ context.Context, entityID id.EntityID) (*workorder.WorkOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[entityID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "work order not found")
	}
	out := *order
	return &out, nil
}

func (s *Store) List(_ context.Context, filters workorder.Filters) ([]workorder.WorkOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]workorder.WorkOrder, 0, len(s.orders))
	for _, order := range s.orders {
		if filters.Status != nil && order.Status != *filters.Status {
			continue
		}
		matched = append(matched, *order)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filters.Offset >= len(matched) {
		return []workorder.WorkOrder{}, nil
	}
	matched = matched[filters.Offset:]
	if filters.Limit > 0 && len(matched) > filters.Limit {
		matched = matched[:filters.Limit]
	}
	return matched, nil
}

func (s *Store) UpdateStatus(_ context.Context, entityID id.EntityID, expectedCurrent, newStatus id.StatusCode) (id.StatusCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[entityID]
	if !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "work order not found")
	}
	if order.Status != expectedCurrent {
		return order.Status, dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("status is %s, expected %s", order.Status, expectedCurrent))
	}
	order.Status = newStatus
	order.UpdatedAt = time.Now().UTC()
	return newStatus, nil
}
