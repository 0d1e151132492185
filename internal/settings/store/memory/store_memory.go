package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"shopflow/internal/settings"
	dErrors "shopflow/pkg/domain-errors"
)

// Store keeps settings documents in memory. One lock spans the existence
// check and the write so CreateIfAbsent is atomic, mirroring the group key
// uniqueness the PostgreSQL store relies on.
type Store struct {
	mu     sync.Mutex
	groups map[string]*settings.Record
}

func New() *Store {
	return &Store{groups: make(map[string]*settings.Record)}
}

func (s *Store) Get(_ context.Context, group string) (*settings.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.groups[group]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "settings group not found: "+group)
	}
	out := *record
	out.Document = append(json.RawMessage(nil), record.Document...)
	return &out, nil
}

func (s *Store) Save(_ context.Context, group string, doc json.RawMessage) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := 1
	if existing, ok := s.groups[group]; ok {
		version = existing.Version + 1
	}
	s.groups[group] = &settings.Record{
		Group:     group,
		Document:  append(json.RawMessage(nil), doc...),
		Version:   version,
		UpdatedAt: time.Now().UTC(),
	}
	return version, nil
}

func (s *Store) CreateIfAbsent(_ context.Context, group string, doc json.RawMessage) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groups[group]; exists {
		return false, nil
	}
	s.groups[group] = &settings.Record{
		Group:     group,
		Document:  append(json.RawMessage(nil), doc...),
		Version:   1,
		UpdatedAt: time.Now().UTC(),
	}
	return true, nil
}
