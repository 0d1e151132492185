package notification

import (
	"fmt"
	"time"

	id "shopflow/pkg/domain"
)

// Record is one notification. At most one record exists per dedup key; the
// only permitted mutation after creation is flipping IsRead.
type Record struct {
	ID        id.NotificationID
	Type      string
	EntityID  *id.EntityID
	DedupKey  string
	NotifyAt  *time.Time
	CreatedAt time.Time
	CreatedBy id.ActorID
	Title     string
	Message   string
	IsRead    bool
}

// Payload is the input for Create. It is a value, never persisted itself.
type Payload struct {
	Type      string
	EntityID  *id.EntityID
	NotifyAt  *time.Time
	Title     string
	Message   string
	CreatedBy id.ActorID
}

// DedupKey collapses duplicate notification requests onto one record:
// (entity, type, calendar day). The day bucket is the calendar day of
// notifyAt when valid, else the creation day. Days are bucketed in UTC so
// the key does not depend on server locale.
func DedupKey(entityID *id.EntityID, notificationType string, notifyAt *time.Time, createdAt time.Time) string {
	bucket := createdAt
	if notifyAt != nil && !notifyAt.IsZero() {
		bucket = *notifyAt
	}

	entity := "none"
	if entityID != nil && !entityID.IsNil() {
		entity = entityID.String()
	}
	return fmt.Sprintf("%s|%s|%s", entity, notificationType, bucket.UTC().Format("2006-01-02"))
}
