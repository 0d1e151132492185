package audit

import (
	"context"
	"fmt"
	"log/slog"

	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
	"shopflow/pkg/requestcontext"
)

// Store is the persistence contract for audit entries. Append must never
// silently drop an entry; implementations fail loudly on storage errors.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByResource(ctx context.Context, resourceType id.EntityType, resourceID id.EntityID) ([]Entry, error)
	Search(ctx context.Context, filters Filters, limit, offset int) (SearchResult, error)
}

// Service is the append-only recorder and query surface for audit entries.
type Service struct {
	store  Store
	logger *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("audit store is required")
	}
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Record appends one entry and returns its ID. Missing IDs and timestamps
// are filled in from the request context so callers only supply what they
// know.
func (s *Service) Record(ctx context.Context, entry Entry) (id.AuditEntryID, error) {
	if entry.Action == "" {
		return id.AuditEntryID{}, dErrors.New(dErrors.CodeValidation, "audit action is required")
	}
	if entry.ResourceType.IsNil() {
		return id.AuditEntryID{}, dErrors.New(dErrors.CodeValidation, "audit resource type is required")
	}
	if entry.ID.IsNil() {
		entry.ID = id.NewAuditEntryID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}

	if err := s.store.Append(ctx, entry); err != nil {
		return id.AuditEntryID{}, dErrors.Wrap(err, dErrors.CodeInternal, "append audit entry")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "audit entry recorded",
			"audit_id", entry.ID,
			"action", entry.Action,
			"resource_type", entry.ResourceType,
			"resource_id", entry.ResourceID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return entry.ID, nil
}

// ByResource returns every entry for one resource in ascending timestamp
// order.
func (s *Service) ByResource(ctx context.Context, resourceType id.EntityType, resourceID id.EntityID) ([]Entry, error) {
	entries, err := s.store.ListByResource(ctx, resourceType, resourceID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list audit entries")
	}
	return entries, nil
}

// Search returns one page of matches ordered descending by timestamp plus
// the total match count.
func (s *Service) Search(ctx context.Context, filters Filters, limit, offset int) (SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	result, err := s.store.Search(ctx, filters, limit, offset)
	if err != nil {
		return SearchResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "search audit entries")
	}
	return result, nil
}
