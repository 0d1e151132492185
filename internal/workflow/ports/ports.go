// Package ports defines the collaborator contracts the transition guard
// depends on. The guard orchestrates; every side effect goes through one of
// these interfaces so implementations can be swapped without touching the
// guard.
package ports

import (
	"context"

	"shopflow/internal/audit"
	"shopflow/internal/notification"
	"shopflow/internal/workflow/models"
	"shopflow/internal/workflow/table"
	id "shopflow/pkg/domain"
)

// EntityStore performs the optimistic-concurrency status write.
type EntityStore interface {
	// UpdateStatus sets the entity's status to newStatus only while its
	// current status still equals expectedCurrent. It returns the entity's
	// status after the call: newStatus on commit, the conflicting current
	// status alongside a CodeConflict error otherwise. A missing entity
	// yields CodeNotFound. No internal retries.
	UpdateStatus(ctx context.Context, entityType id.EntityType, entityID id.EntityID, expectedCurrent, newStatus id.StatusCode) (id.StatusCode, error)
}

// Recorder appends one immutable audit entry and returns its ID.
type Recorder interface {
	Record(ctx context.Context, entry audit.Entry) (id.AuditEntryID, error)
}

// Notifier creates a notification, deduplicated per (entity, type, day).
type Notifier interface {
	Create(ctx context.Context, payload notification.Payload) (id.NotificationID, error)
}

// RuleProvider exposes the current configuration snapshot. Implementations
// must be safe for unlimited concurrent readers; reloads swap snapshots
// atomically.
type RuleProvider interface {
	// TableFor returns the transition table serving the entity kind, or a
	// CodeMalformedTable error when no valid rules are loaded for it.
	TableFor(entityType id.EntityType) (*table.Table, error)

	// IsElevated reports whether the role may bypass the transition table.
	IsElevated(entityType id.EntityType, role id.Role) bool

	// TransitionNotification returns the notification configured for
	// transitions into the given status, if any.
	TransitionNotification(entityType id.EntityType, to id.StatusCode) (models.NotificationTemplate, bool)

	// IdempotentNoOp reports whether from==to requests succeed without
	// writing anything instead of failing CodeNoOpTransition.
	IdempotentNoOp(entityType id.EntityType) bool
}

// EventPublisher hands a committed transition to the event feed. Enqueue
// must not block the transition path; feed delivery is best effort.
type EventPublisher interface {
	Enqueue(event TransitionEvent)
}

// TransitionEvent is the record published to the feed for each committed
// transition.
type TransitionEvent struct {
	EventID      string        `json:"event_id"`
	EntityType   id.EntityType `json:"entity_type"`
	EntityID     string        `json:"entity_id"`
	From         id.StatusCode `json:"from"`
	To           id.StatusCode `json:"to"`
	Action       audit.Action  `json:"action"`
	ActorID      string        `json:"actor_id"`
	Reason       string        `json:"reason,omitempty"`
	AuditEntryID string        `json:"audit_entry_id"`
	OccurredAt   string        `json:"occurred_at"`
}
