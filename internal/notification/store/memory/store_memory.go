package memory

import (
	"context"
	"sort"
	"sync"

	"shopflow/internal/notification"
	id "shopflow/pkg/domain"
)

// Store keeps notifications in memory. A single lock spans the existence
// check and the insert so CreateIfAbsent is atomic, mirroring the unique
// constraint the PostgreSQL store relies on.
type Store struct {
	mu      sync.Mutex
	byKey   map[string]*notification.Record
	byID    map[id.NotificationID]*notification.Record
	created []*notification.Record
}

func New() *Store {
	return &Store{
		byKey: make(map[string]*notification.Record),
		byID:  make(map[id.NotificationID]*notification.Record),
	}
}

func (s *Store) CreateIfAbsent(_ context.Context, record notification.Record) (id.NotificationID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byKey[record.DedupKey]; ok {
		return existing.ID, false, nil
	}

	stored := record
	s.byKey[record.DedupKey] = &stored
	s.byID[record.ID] = &stored
	s.created = append(s.created, &stored)
	return record.ID, true, nil
}

func (s *Store) FindByID(_ context.Context, notificationID id.NotificationID) (*notification.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byID[notificationID]
	if !ok {
		return nil, nil
	}
	out := *record
	return &out, nil
}

func (s *Store) List(_ context.Context, limit, offset int) ([]notification.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]*notification.Record, len(s.created))
	copy(sorted, s.created)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	if offset >= len(sorted) {
		return nil, nil
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}

	out := make([]notification.Record, 0, end-offset)
	for _, r := range sorted[offset:end] {
		out = append(out, *r)
	}
	return out, nil
}

func (s *Store) MarkRead(_ context.Context, notificationID id.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.byID[notificationID]; ok {
		record.IsRead = true
	}
	return nil
}

func (s *Store) CountUnread(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, record := range s.created {
		if !record.IsRead {
			count++
		}
	}
	return count, nil
}
