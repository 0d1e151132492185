// Package service implements the transition guard: the single entry point
// through which tracked entities change status.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"shopflow/internal/audit"
	"shopflow/internal/notification"
	"shopflow/internal/workflow/models"
	"shopflow/internal/workflow/ports"
	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
	"shopflow/pkg/requestcontext"
)

// Metrics is the slice of instrumentation the guard reports to.
type Metrics interface {
	ObserveTransition(entityType, outcome string)
	AuditWriteFailure()
}

// Transition outcomes as reported to metrics.
const (
	outcomeSuccess           = "success"
	outcomeOverride          = "override"
	outcomeNoOp              = "noop"
	outcomeRejected          = "rejected"
	outcomeConflict          = "conflict"
	outcomeNotFound          = "not_found"
	outcomeError             = "error"
	outcomeAuditWriteFailure = "audit_write_failed"
)

// Service validates transition requests, delegates the status write to the
// entity store, and records the audit trail and notifications for committed
// transitions. Each call is an independent unit of work; the only shared
// state is the configuration snapshot behind the RuleProvider.
type Service struct {
	rules     ports.RuleProvider
	entities  ports.EntityStore
	recorder  ports.Recorder
	notifier  ports.Notifier
	publisher ports.EventPublisher
	logger    *slog.Logger
	metrics   Metrics
	tracer    trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithNotifier enables notification creation for transitions that have one
// configured. Without it, notification rules are ignored.
func WithNotifier(n ports.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithEventPublisher enables the transition event feed.
func WithEventPublisher(p ports.EventPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func New(rules ports.RuleProvider, entities ports.EntityStore, recorder ports.Recorder, opts ...Option) (*Service, error) {
	if rules == nil {
		return nil, fmt.Errorf("rule provider is required")
	}
	if entities == nil {
		return nil, fmt.Errorf("entity store is required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder is required")
	}

	svc := &Service{
		rules:    rules,
		entities: entities,
		recorder: recorder,
		tracer:   otel.Tracer("shopflow/workflow"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RequestTransition moves one entity between lifecycle statuses.
//
// Validation is fail-fast with no partial effects: a rejected request leaves
// no audit entry and no notification. After the status write commits,
// exactly one audit entry is recorded. If that audit write fails the
// transition is still committed (the entity's status already changed); the
// failure comes back as a CodeInvariantViolation error alongside the result
// so callers can flag it for reconciliation. It is never swallowed.
func (s *Service) RequestTransition(ctx context.Context, req models.TransitionRequest) (*models.TransitionResult, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.RequestTransition")
	defer span.End()

	if err := req.Validate(); err != nil {
		s.observe(req.EntityType, outcomeRejected)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("entity_type", req.EntityType.String()),
		attribute.String("from", req.From.String()),
		attribute.String("to", req.To.String()),
		attribute.Bool("override", req.Override),
	)

	tbl, err := s.rules.TableFor(req.EntityType)
	if err != nil {
		s.observe(req.EntityType, outcomeRejected)
		return nil, err
	}

	if req.From == req.To {
		if s.rules.IdempotentNoOp(req.EntityType) {
			s.observe(req.EntityType, outcomeNoOp)
			return &models.TransitionResult{
				EntityType: req.EntityType,
				EntityID:   req.EntityID,
				Status:     req.To,
				NoOp:       true,
			}, nil
		}
		s.observe(req.EntityType, outcomeRejected)
		return nil, dErrors.New(dErrors.CodeNoOpTransition,
			fmt.Sprintf("entity is already in status %s", req.To))
	}

	action := audit.ActionStatusChanged
	if req.Override {
		if !s.rules.IsElevated(req.EntityType, req.ActorRole) {
			s.observe(req.EntityType, outcomeRejected)
			return nil, dErrors.New(dErrors.CodeForbidden,
				fmt.Sprintf("role %s may not override the transition table", req.ActorRole))
		}
		// Overrides bypass the table entirely, even when the pair happens
		// to be allowed: the audit action must still say an override
		// happened.
		action = audit.ActionStatusOverride
	} else if !tbl.IsAllowed(req.EntityType, req.From, req.To) {
		s.observe(req.EntityType, outcomeRejected)
		return nil, dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("transition %s -> %s is not allowed for %s", req.From, req.To, req.EntityType))
	}

	// Two racing transitions from the same status both reach this point;
	// the optimistic check in the store lets exactly one commit.
	committed, err := s.entities.UpdateStatus(ctx, req.EntityType, req.EntityID, req.From, req.To)
	if err != nil {
		switch {
		case dErrors.HasCode(err, dErrors.CodeConflict):
			s.observe(req.EntityType, outcomeConflict)
		case dErrors.HasCode(err, dErrors.CodeNotFound):
			s.observe(req.EntityType, outcomeNotFound)
		default:
			s.observe(req.EntityType, outcomeError)
			err = dErrors.Wrap(err, dErrors.CodeInternal, "update entity status")
		}
		span.RecordError(err)
		return nil, err
	}

	result := &models.TransitionResult{
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Status:     committed,
		Overridden: req.Override,
	}

	auditID, err := s.recorder.Record(ctx, s.auditEntry(ctx, req, action))
	if err != nil {
		if s.metrics != nil {
			s.metrics.AuditWriteFailure()
		}
		s.observe(req.EntityType, outcomeAuditWriteFailure)
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "status committed but audit write failed; needs reconciliation",
				"entity_type", req.EntityType,
				"entity_id", req.EntityID,
				"from", req.From,
				"to", req.To,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		span.RecordError(err)
		return result, dErrors.Wrap(err, dErrors.CodeInvariantViolation,
			"status committed but audit write failed")
	}
	result.AuditEntryID = auditID

	s.maybeNotify(ctx, req)
	s.maybePublish(ctx, req, action, auditID)

	if req.Override {
		s.observe(req.EntityType, outcomeOverride)
	} else {
		s.observe(req.EntityType, outcomeSuccess)
	}
	return result, nil
}

// AllowedNext exposes the reachable statuses for an entity's current
// status, for clients rendering transition choices.
func (s *Service) AllowedNext(entityType id.EntityType, from id.StatusCode) ([]models.Status, error) {
	tbl, err := s.rules.TableFor(entityType)
	if err != nil {
		return nil, err
	}
	return tbl.AllowedNext(entityType, from), nil
}

func (s *Service) auditEntry(ctx context.Context, req models.TransitionRequest, action audit.Action) audit.Entry {
	entry := audit.Entry{
		ActorID:      req.ActorID,
		ActorEmail:   req.ActorEmail,
		Action:       action,
		ResourceType: req.EntityType,
		ResourceID:   req.EntityID,
		Before:       req.From.String(),
		After:        req.To.String(),
		Context: audit.Context{
			IP:        requestcontext.ClientIP(ctx),
			UserAgent: requestcontext.UserAgent(ctx),
			Device:    requestcontext.DeviceSummary(ctx),
		},
	}
	if req.Reason != "" {
		entry.Extra = map[string]string{"reason": req.Reason}
	}
	return entry
}

// maybeNotify creates the configured notification for the target status.
// Notification failures do not undo or fail the transition: the audit trail
// is the source of truth and the dedup key makes a later retry safe.
func (s *Service) maybeNotify(ctx context.Context, req models.TransitionRequest) {
	if s.notifier == nil {
		return
	}
	tmpl, ok := s.rules.TransitionNotification(req.EntityType, req.To)
	if !ok {
		return
	}
	_, err := s.notifier.Create(ctx, notification.Payload{
		Type:      tmpl.Type,
		EntityID:  &req.EntityID,
		Title:     tmpl.Title,
		Message:   tmpl.Message,
		CreatedBy: req.ActorID,
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to create transition notification",
			"entity_type", req.EntityType,
			"entity_id", req.EntityID,
			"to", req.To,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (s *Service) maybePublish(ctx context.Context, req models.TransitionRequest, action audit.Action, auditID id.AuditEntryID) {
	if s.publisher == nil {
		return
	}
	s.publisher.Enqueue(ports.TransitionEvent{
		EventID:      uuid.NewString(),
		EntityType:   req.EntityType,
		EntityID:     req.EntityID.String(),
		From:         req.From,
		To:           req.To,
		Action:       action,
		ActorID:      req.ActorID.String(),
		Reason:       req.Reason,
		AuditEntryID: auditID.String(),
		OccurredAt:   requestcontext.Now(ctx).UTC().Format(time.RFC3339Nano),
	})
}

func (s *Service) observe(entityType id.EntityType, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(entityType.String(), outcome)
	}
}
