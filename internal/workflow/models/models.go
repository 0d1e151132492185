package models

import (
	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
)

// Status is a named point in an entity lifecycle. SortOrder controls how
// statuses are presented; it carries no transition semantics.
type Status struct {
	Code      id.StatusCode
	Label     string
	SortOrder int
}

// TransitionRequest is the input to the guard. It is a value, never
// persisted itself.
type TransitionRequest struct {
	EntityType id.EntityType
	EntityID   id.EntityID
	ActorID    id.ActorID
	ActorEmail string
	ActorRole  id.Role
	From       id.StatusCode
	To         id.StatusCode
	Reason     string
	Override   bool
}

// Validate rejects structurally malformed requests before any collaborator
// is consulted.
func (r TransitionRequest) Validate() error {
	switch {
	case r.EntityType.IsNil():
		return dErrors.New(dErrors.CodeValidation, "entity type is required")
	case r.EntityID.IsNil():
		return dErrors.New(dErrors.CodeValidation, "entity id is required")
	case r.ActorID.IsNil():
		return dErrors.New(dErrors.CodeValidation, "actor id is required")
	case r.ActorRole.IsNil():
		return dErrors.New(dErrors.CodeValidation, "actor role is required")
	case r.From.IsNil():
		return dErrors.New(dErrors.CodeValidation, "from status is required")
	case r.To.IsNil():
		return dErrors.New(dErrors.CodeValidation, "to status is required")
	}
	return nil
}

// TransitionResult reports a committed transition. NoOp marks the
// idempotent-success path where nothing was written.
type TransitionResult struct {
	EntityType   id.EntityType
	EntityID     id.EntityID
	Status       id.StatusCode
	AuditEntryID id.AuditEntryID
	Overridden   bool
	NoOp         bool
}

// NotificationTemplate describes the notification configured for a
// transition target status.
type NotificationTemplate struct {
	Type    string
	Title   string
	Message string
}
