package workorder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"shopflow/internal/audit"
	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
	"shopflow/pkg/requestcontext"
)

// Store is the persistence contract for work orders.
type Store interface {
	Create(ctx context.Context, order WorkOrder) error
	FindByID(ctx context.Context, entityID id.EntityID) (*WorkOrder, error)
	List(ctx context.Context, filters Filters) ([]WorkOrder, error)

	// UpdateStatus sets the status to newStatus only while the stored
	// status still equals expectedCurrent, in one atomic step. It returns
	// the status after the call: newStatus on commit, the conflicting
	// current status alongside a CodeConflict error otherwise.
	UpdateStatus(ctx context.Context, entityID id.EntityID, expectedCurrent, newStatus id.StatusCode) (id.StatusCode, error)
}

// InitialStatusProvider yields the status new work orders start in, per the
// current workflow configuration.
type InitialStatusProvider interface {
	InitialStatus(entityType id.EntityType) (id.StatusCode, error)
}

// Recorder appends audit entries for work order lifecycle events.
type Recorder interface {
	Record(ctx context.Context, entry audit.Entry) (id.AuditEntryID, error)
}

// Service owns work order creation and reads. Status changes are not served
// here; they go through the transition guard.
type Service struct {
	store    Store
	initial  InitialStatusProvider
	recorder Recorder
	logger   *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditRecorder records an entry for each created work order.
func WithAuditRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

func New(store Store, initial InitialStatusProvider, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("work order store is required")
	}
	if initial == nil {
		return nil, fmt.Errorf("initial status provider is required")
	}
	svc := &Service{store: store, initial: initial}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create opens a new work order in the configured initial status.
func (s *Service) Create(ctx context.Context, payload CreatePayload) (*WorkOrder, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	initial, err := s.initial.InitialStatus(id.EntityTypeWorkOrder)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx).UTC()
	order := WorkOrder{
		ID:           id.EntityID(uuid.New()),
		Title:        payload.Title,
		Description:  payload.Description,
		CustomerName: payload.CustomerName,
		Status:       initial,
		CreatedBy:    payload.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, order); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create work order")
	}

	if s.recorder != nil {
		_, err := s.recorder.Record(ctx, audit.Entry{
			ActorID:      payload.CreatedBy,
			Action:       audit.ActionEntityCreated,
			ResourceType: id.EntityTypeWorkOrder,
			ResourceID:   order.ID,
			After:        initial.String(),
			Context: audit.Context{
				IP:        requestcontext.ClientIP(ctx),
				UserAgent: requestcontext.UserAgent(ctx),
				Device:    requestcontext.DeviceSummary(ctx),
			},
		})
		if err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to record work order creation",
				"work_order_id", order.ID,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}

	return &order, nil
}

// Get returns one work order.
func (s *Service) Get(ctx context.Context, entityID id.EntityID) (*WorkOrder, error) {
	order, err := s.store.FindByID(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// List returns work orders matching the filters, newest first.
func (s *Service) List(ctx context.Context, filters Filters) ([]WorkOrder, error) {
	if filters.Limit <= 0 || filters.Limit > 200 {
		filters.Limit = 50
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	return s.store.List(ctx, filters)
}
