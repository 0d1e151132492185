package service

//go:generate mockgen -source=../ports/ports.go -destination=../ports/mocks/mocks.go -package=mocks EntityStore,Recorder,Notifier,RuleProvider,EventPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"shopflow/internal/audit"
	"shopflow/internal/notification"
	"shopflow/internal/workflow/models"
	"shopflow/internal/workflow/ports"
	"shopflow/internal/workflow/ports/mocks"
	"shopflow/internal/workflow/table"
	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
)

// =============================================================================
// Transition Guard Test Suite
// =============================================================================
// Justification for unit tests: The guard is the single choke point for
// status changes. Tests verify the validation order, that rejected requests
// produce zero side effects, override tagging, conflict propagation, and the
// committed-but-unaudited failure contract.

type fakeMetrics struct {
	outcomes      map[string]int
	auditFailures int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{outcomes: make(map[string]int)}
}

func (f *fakeMetrics) ObserveTransition(entityType, outcome string) {
	f.outcomes[entityType+"/"+outcome]++
}

func (f *fakeMetrics) AuditWriteFailure() { f.auditFailures++ }

type GuardSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	mockRules     *mocks.MockRuleProvider
	mockEntities  *mocks.MockEntityStore
	mockRecorder  *mocks.MockRecorder
	mockNotifier  *mocks.MockNotifier
	mockPublisher *mocks.MockEventPublisher
	metrics       *fakeMetrics
	service       *Service
	table         *table.Table
}

func TestGuardSuite(t *testing.T) {
	suite.Run(t, new(GuardSuite))
}

const (
	statusNew        = id.StatusCode("NEW")
	statusInProgress = id.StatusCode("IN_PROGRESS")
	statusDone       = id.StatusCode("DONE")
	statusCancelled  = id.StatusCode("CANCELLED")
)

func (s *GuardSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockRules = mocks.NewMockRuleProvider(s.ctrl)
	s.mockEntities = mocks.NewMockEntityStore(s.ctrl)
	s.mockRecorder = mocks.NewMockRecorder(s.ctrl)
	s.mockNotifier = mocks.NewMockNotifier(s.ctrl)
	s.mockPublisher = mocks.NewMockEventPublisher(s.ctrl)
	s.metrics = newFakeMetrics()

	tbl, err := table.New([]table.Definition{{
		EntityType: id.EntityTypeWorkOrder,
		Statuses: []models.Status{
			{Code: statusNew, Label: "New", SortOrder: 1},
			{Code: statusInProgress, Label: "In progress", SortOrder: 2},
			{Code: statusDone, Label: "Done", SortOrder: 3},
			{Code: statusCancelled, Label: "Cancelled", SortOrder: 4},
		},
		Transitions: map[id.StatusCode][]id.StatusCode{
			statusNew:        {statusInProgress, statusCancelled},
			statusInProgress: {statusDone, statusCancelled},
			statusDone:       {},
			statusCancelled:  {},
		},
		Total: true,
	}})
	s.Require().NoError(err)
	s.table = tbl

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service, err = New(
		s.mockRules,
		s.mockEntities,
		s.mockRecorder,
		WithLogger(logger),
		WithMetrics(s.metrics),
		WithNotifier(s.mockNotifier),
		WithEventPublisher(s.mockPublisher),
	)
	s.Require().NoError(err)
}

func (s *GuardSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *GuardSuite) request() models.TransitionRequest {
	return models.TransitionRequest{
		EntityType: id.EntityTypeWorkOrder,
		EntityID:   id.EntityID(uuid.New()),
		ActorID:    id.ActorID(uuid.New()),
		ActorEmail: "mechanic@shop.example",
		ActorRole:  "mechanic",
		From:       statusNew,
		To:         statusInProgress,
	}
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *GuardSuite) TestNew() {
	s.Run("nil rule provider returns error", func() {
		_, err := New(nil, s.mockEntities, s.mockRecorder)
		s.Error(err)
		s.Contains(err.Error(), "rule provider is required")
	})

	s.Run("nil entity store returns error", func() {
		_, err := New(s.mockRules, nil, s.mockRecorder)
		s.Error(err)
		s.Contains(err.Error(), "entity store is required")
	})

	s.Run("nil recorder returns error", func() {
		_, err := New(s.mockRules, s.mockEntities, nil)
		s.Error(err)
		s.Contains(err.Error(), "audit recorder is required")
	})

	s.Run("minimal construction succeeds without options", func() {
		svc, err := New(s.mockRules, s.mockEntities, s.mockRecorder)
		s.NoError(err)
		s.NotNil(svc)
	})
}

// =============================================================================
// Rejection Paths (no side effects)
// =============================================================================
// Unexpected mock calls fail the test, so every rejection case also proves
// that no status write, audit entry, notification, or event was produced.

func (s *GuardSuite) TestRequestTransitionValidation() {
	s.Run("missing entity id", func() {
		req := s.request()
		req.EntityID = id.EntityID{}
		result, err := s.service.RequestTransition(context.Background(), req)
		s.Nil(result)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing actor role", func() {
		req := s.request()
		req.ActorRole = ""
		result, err := s.service.RequestTransition(context.Background(), req)
		s.Nil(result)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing target status", func() {
		req := s.request()
		req.To = ""
		result, err := s.service.RequestTransition(context.Background(), req)
		s.Nil(result)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *GuardSuite) TestRequestTransitionUnserviceableKind() {
	req := s.request()
	s.mockRules.EXPECT().TableFor(req.EntityType).
		Return(nil, dErrors.New(dErrors.CodeMalformedTable, "no valid rules loaded for work_order"))

	result, err := s.service.RequestTransition(context.Background(), req)
	s.Nil(result)
	s.True(dErrors.HasCode(err, dErrors.CodeMalformedTable))
	s.Equal(1, s.metrics.outcomes["work_order/rejected"])
}

func (s *GuardSuite) TestRequestTransitionInvalidPair() {
	req := s.request()
	req.From = statusDone
	req.To = statusNew
	s.mockRules.EXPECT().TableFor(req.EntityType).Return(s.table, nil)

	result, err := s.service.RequestTransition(context.Background(), req)
	s.Nil(result)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	s.Contains(err.Error(), "DONE -> NEW")
}

func (s *GuardSuite) TestRequestTransitionOverrideForbidden() {
	req := s.request()
	req.From = statusDone
	req.To = statusNew
	req.Override = true
	s.mockRules.EXPECT().TableFor(req.EntityType).Return(s.table, nil)
	s.mockRules.EXPECT().IsElevated(req.EntityType, req.ActorRole).Return(false)

	result, err := s.service.RequestTransition(context.Background(), req)
	s.Nil(result)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

// =============================================================================
// Same-Status Requests
// =============================================================================

func (s *GuardSuite) TestRequestTransitionSameStatus() {
	s.Run("idempotent kind succeeds without writing", func() {
		req := s.request()
		req.To = req.From
		s.mockRules.EXPECT().TableFor(req.EntityType).Return(s.table, nil)
		s.mockRules.EXPECT().IdempotentNoOp(req.EntityType).Return(true)

		result, err := s.service.RequestTransition(context.Background(), req)
		s.NoError(err)
		s.Require().NotNil(result)
		s.True(result.NoOp)
		s.Equal(req.From, result.Status)
		s.True(result.AuditEntryID.IsNil())
		s.Equal(1, s.metrics.outcomes["work_order/noop"])
	})

	s.Run("strict kind rejects", func() {
		req := s.request()
		req.To = req.From
		s.mockRules.EXPECT().TableFor(req.EntityType).Return(s.table, nil)
		s.mockRules.EXPECT().IdempotentNoOp(req.EntityType).Return(false)

		result, err := s.service.RequestTransition(context.Background(), req)
		s.Nil(result)
		s.True(dErrors.HasCode(err, dErrors.CodeNoOpTransition))
	})
}

// =============================================================================
// Committed Transitions
// =============================================================================

func (s *GuardSuite) TestRequestTransitionSuccess() {
	req := s.request()
	req.Reason = "parts arrived"
	auditID := id.NewAuditEntryID()

	s.mockRules.EXPECT().TableFor(req.EntityType).Return(s.table, nil)
	s.mockEntities.EXPECT().
		UpdateStatus(gomock.Any(), req.EntityType, req.EntityID, statusNew, statusInProgress).
		Return(statusInProgress, nil)

	var recorded audit.Entry
	s.mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry audit.Entry) (id.AuditEntryID, error) {
			recorded = entry
			return auditID, nil
		})
	s.mockRules.EXPECT().TransitionNotification(req.EntityType, statusInProgress).
		Return(models.NotificationTemplate{}, false)

	var published ports.TransitionEvent
	s.mockPublisher.EXPECT().Enqueue(gomock.Any()).
		Do(func(event ports.TransitionEvent) { published = event })

	result, err := s.service.RequestTransition(context.Background(), req)
	s.Require().NoError(err)
	s.Require().NotNil(result)
	s.Equal(statusInProgress, result.Status)
	s.Equal(auditID, result.AuditEntryID)
	s.False(result.Overridden)
	s.False(result.NoOp)

	s.Equal(audit.ActionStatusChanged, recorded.Action)
	s.Equal(req.ActorID, recorded.ActorID)
	s.Equal(req.EntityID, recorded.ResourceID)
	s.Equal("NEW", recorded.Before)
	s.Equal("IN_PROGRESS", recorded.After)
	s.Equal("parts arrived", recorded.Extra["reason"])

	s.Equal(req.EntityID.String(), published.EntityID)
	s.Equal(audit.ActionStatusChanged, published.Action)
	s.Equal(auditID.String(), published.AuditEntryID)
	s.NotEmpty(published.EventID)
	s.NotEmpty(published.OccurredAt)

	s.Equal(1, s.metrics.outcomes["work_order/success"])
}

func (s *GuardSuite) TestRequestTransitionOverride() {
	s.Run("elevated role bypasses the table", func() {
		req := s.request()
		req.From = statusDone
		req.To = statusInProgress
		req.Override = true
		req.ActorRole = "admin"

		s.mockRules.EXPECT().TableFor(req.EntityType).Return(s.table, nil)
		s.mockRules.EXPECT().IsElevated(req.EntityType, req.ActorRole).Return(true)
		s.mockEntities.EXPECT().
			UpdateStatus(gomock.Any(), req.EntityType, req.EntityID, statusDone, statusInProgress).
			Return(statusInProgress, nil)

		var recorded audit.Entry
		s.mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry audit.Entry) (id.AuditEntryID, error) {
				recorded = entry
				return id.NewAuditEntryID(), nil
			})
		s.mockRules.EXPECT().TransitionNotification(req.EntityType, statusInProgress).
			Return(models.NotificationTemplate{}, false)
		s.mockPublisher.EXPECT().Enqueue(gomock.Any())

		result, err := s.service.RequestTransition(context.Background(), req)
		s.Require().NoError(err)
		s.True(result.Overridden)
		s.Equal(audit.ActionStatusOverride, recorded.Action)
		s.Equal(1, s.metrics.outcomes["work_order/override"])
	})

	s.Run("override of an allowed pair is still tagged as override", func() {
		req := s.request()
		req.Override = true
		req.ActorRole = "admin"

		s.mockRules.EXPECT().TableFor(req.EntityType).Return(s.table, nil)
		s.mockRules.EXPECT().IsElevated(req.EntityType, req.ActorRole).Return(true)
		s.mockEntities.EXPECT().
			UpdateStatus(gomock.Any(), req.EntityType, req.EntityID, statusNew, statusInProgress).
			Return(statusInProgress, nil)

		var recorded audit.Entry
		s.mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry audit.Entry) (id.AuditEntryID, error) {
				recorded = entry
				return id.NewAuditEntryID(), nil
			})
		s.mockRules.EXPECT().TransitionNotification(req.EntityType, statusInProgress).
			Return(models.NotificationTemplate{}, false)
		s.mockPublisher.EXPECT().Enqueue(gomock.Any())

		_, err := s.service.RequestTransition(context.Background(), req)
		s.Require().NoError(err)
		s.Equal(audit.ActionStatusOverride, recorded.Action)
	})
}

// =============================================================================
// Store Failures
// =============================================================================

func (s *GuardSuite) TestRequestTransitionStoreErrors() {
	s.Run("conflict propagates without audit or notification", func() {
		req := s.request()
		s.mockRules.EXPECT().TableFor(req.EntityType).Return(s.table, nil)
		s.mockEntities.EXPECT().
			UpdateStatus(gomock.Any(), req.EntityType, req.EntityID, statusNew, statusInProgress).
			Return(statusCancelled, dErrors.New(dErrors.CodeConflict, "status is CANCELLED, expected NEW"))

		result, err := s.service.RequestTransition(context.Background(), req)
		s.Nil(result)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(1, s.metrics.outcomes["work_order/conflict"])
	})

	s.Run("missing entity propagates not found", func() {
		req := s.request()
		s.mockRules.EXPECT().TableFor(req.EntityType).Return(s.table, nil)
		s.mockEntities.EXPECT().
			UpdateStatus(gomock.Any(), req.EntityType, req.EntityID, statusNew, statusInProgress).
			Return(id.StatusCode(""), dErrors.New(dErrors.CodeNotFound, "work order not found"))

		result, err := s.service.RequestTransition(context.Background(), req)
		s.Nil(result)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unexpected store error is wrapped internal", func() {
		req := s.request()
		s.mockRules.EXPECT().TableFor(req.EntityType).Return(s.table, nil)
		s.mockEntities.EXPECT().
			UpdateStatus(gomock.Any(), req.EntityType, req.EntityID, statusNew, statusInProgress).
			Return(id.StatusCode(""), errors.New("connection reset"))

		result, err := s.service.RequestTransition(context.Background(), req)
		s.Nil(result)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

// =============================================================================
// Post-Commit Failures
// =============================================================================

func (s *GuardSuite) TestRequestTransitionAuditWriteFailure() {
	req := s.request()
	s.mockRules.EXPECT().TableFor(req.EntityType).Return(s.table, nil)
	s.mockEntities.EXPECT().
		UpdateStatus(gomock.Any(), req.EntityType, req.EntityID, statusNew, statusInProgress).
		Return(statusInProgress, nil)
	s.mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any()).
		Return(id.AuditEntryID{}, errors.New("disk full"))

	result, err := s.service.RequestTransition(context.Background(), req)
	s.Require().NotNil(result, "committed status must be reported even when the audit write fails")
	s.Equal(statusInProgress, result.Status)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	s.Equal(1, s.metrics.auditFailures)
	s.Equal(1, s.metrics.outcomes["work_order/audit_write_failed"])
}

func (s *GuardSuite) TestRequestTransitionNotificationFailureIsNonFatal() {
	req := s.request()
	s.mockRules.EXPECT().TableFor(req.EntityType).Return(s.table, nil)
	s.mockEntities.EXPECT().
		UpdateStatus(gomock.Any(), req.EntityType, req.EntityID, statusNew, statusInProgress).
		Return(statusInProgress, nil)
	s.mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any()).
		Return(id.NewAuditEntryID(), nil)
	s.mockRules.EXPECT().TransitionNotification(req.EntityType, statusInProgress).
		Return(models.NotificationTemplate{Type: "work_started", Title: "Work started"}, true)
	s.mockNotifier.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(id.NotificationID{}, errors.New("notification store down"))
	s.mockPublisher.EXPECT().Enqueue(gomock.Any())

	result, err := s.service.RequestTransition(context.Background(), req)
	s.NoError(err)
	s.NotNil(result)
	s.Equal(1, s.metrics.outcomes["work_order/success"])
}

func (s *GuardSuite) TestRequestTransitionNotification() {
	req := s.request()
	s.mockRules.EXPECT().TableFor(req.EntityType).Return(s.table, nil)
	s.mockEntities.EXPECT().
		UpdateStatus(gomock.Any(), req.EntityType, req.EntityID, statusNew, statusInProgress).
		Return(statusInProgress, nil)
	s.mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any()).
		Return(id.NewAuditEntryID(), nil)
	s.mockRules.EXPECT().TransitionNotification(req.EntityType, statusInProgress).
		Return(models.NotificationTemplate{Type: "work_started", Title: "Work started", Message: "A work order moved to IN_PROGRESS"}, true)

	var payload notification.Payload
	s.mockNotifier.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p notification.Payload) (id.NotificationID, error) {
			payload = p
			return id.NewNotificationID(), nil
		})
	s.mockPublisher.EXPECT().Enqueue(gomock.Any())

	_, err := s.service.RequestTransition(context.Background(), req)
	s.Require().NoError(err)
	s.Equal("work_started", payload.Type)
	s.Require().NotNil(payload.EntityID)
	s.Equal(req.EntityID, *payload.EntityID)
	s.Equal(req.ActorID, payload.CreatedBy)
}

// =============================================================================
// AllowedNext
// =============================================================================

func (s *GuardSuite) TestAllowedNext() {
	s.Run("returns successors in sort order", func() {
		s.mockRules.EXPECT().TableFor(id.EntityTypeWorkOrder).Return(s.table, nil)
		next, err := s.service.AllowedNext(id.EntityTypeWorkOrder, statusNew)
		s.Require().NoError(err)
		s.Require().Len(next, 2)
		s.Equal(statusInProgress, next[0].Code)
		s.Equal(statusCancelled, next[1].Code)
	})

	s.Run("propagates unserviceable kind", func() {
		s.mockRules.EXPECT().TableFor(id.EntityTypeWorkOrder).
			Return(nil, dErrors.New(dErrors.CodeMalformedTable, "no valid rules"))
		_, err := s.service.AllowedNext(id.EntityTypeWorkOrder, statusNew)
		s.True(dErrors.HasCode(err, dErrors.CodeMalformedTable))
	})
}
