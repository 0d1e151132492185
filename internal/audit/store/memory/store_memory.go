package memory

import (
	"context"
	"sort"
	"sync"

	"shopflow/internal/audit"
	id "shopflow/pkg/domain"
)

// Store keeps audit entries in memory. Entries are copied on the way in and
// out so callers can never mutate what was recorded.
type Store struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, cloneEntry(entry))
	return nil
}

func (s *Store) ListByResource(_ context.Context, resourceType id.EntityType, resourceID id.EntityID) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Entry
	for _, e := range s.entries {
		if e.ResourceType == resourceType && e.ResourceID == resourceID {
			out = append(out, cloneEntry(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (s *Store) Search(_ context.Context, filters audit.Filters, limit, offset int) (audit.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []audit.Entry
	for _, e := range s.entries {
		if matches(e, filters) {
			matched = append(matched, cloneEntry(e))
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	total := len(matched)
	if offset >= total {
		return audit.SearchResult{Items: nil, Total: total}, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return audit.SearchResult{Items: matched[offset:end], Total: total}, nil
}

func matches(e audit.Entry, f audit.Filters) bool {
	if f.ResourceType != nil && e.ResourceType != *f.ResourceType {
		return false
	}
	if f.ResourceID != nil && e.ResourceID != *f.ResourceID {
		return false
	}
	if f.ActorID != nil && e.ActorID != *f.ActorID {
		return false
	}
	if f.Action != nil && e.Action != *f.Action {
		return false
	}
	if f.FromDate != nil && e.Timestamp.Before(*f.FromDate) {
		return false
	}
	if f.ToDate != nil && e.Timestamp.After(*f.ToDate) {
		return false
	}
	return true
}

func cloneEntry(e audit.Entry) audit.Entry {
	if e.Extra != nil {
		extra := make(map[string]string, len(e.Extra))
		for k, v := range e.Extra {
			extra[k] = v
		}
		e.Extra = extra
	}
	return e
}
