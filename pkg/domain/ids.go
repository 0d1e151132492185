package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Typed UUID identifiers. These are domain primitives: using distinct types
// keeps an actor ID from ever being passed where an entity ID is expected,
// at zero runtime cost.
type (
	// ActorID identifies the user performing an action.
	ActorID uuid.UUID

	// EntityID identifies a tracked entity (work order, invoice, ...).
	EntityID uuid.UUID

	// AuditEntryID identifies a single immutable audit entry.
	AuditEntryID uuid.UUID

	// NotificationID identifies a notification record.
	NotificationID uuid.UUID
)

func (id ActorID) String() string  { return uuid.UUID(id).String() }
func (id ActorID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id EntityID) String() string { return uuid.UUID(id).String() }
func (id EntityID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id AuditEntryID) String() string { return uuid.UUID(id).String() }
func (id AuditEntryID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id NotificationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// ParseEntityID parses an entity ID from its string form. The nil UUID is
// rejected: no entity is ever assigned it.
func ParseEntityID(s string) (EntityID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return EntityID{}, err
	}
	return EntityID(u), nil
}

// ParseActorID parses an actor ID from its string form.
func ParseActorID(s string) (ActorID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ActorID{}, err
	}
	return ActorID(u), nil
}

// ParseNotificationID parses a notification ID from its string form.
func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return NotificationID{}, err
	}
	return NotificationID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, err
	}
	if u == uuid.Nil {
		return uuid.Nil, fmt.Errorf("nil UUID is not a valid identifier")
	}
	return u, nil
}

// NewAuditEntryID returns a fresh audit entry identifier.
func NewAuditEntryID() AuditEntryID { return AuditEntryID(uuid.New()) }

// NewNotificationID returns a fresh notification identifier.
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }
