package audit

import (
	"time"

	id "shopflow/pkg/domain"
)

// Action tags what an audit entry records. Status changes and overrides are
// distinct actions: overrides bypass the transition table and are a
// compliance-sensitive category of their own, so they must never be folded
// into the ordinary action with free-text qualifiers.
type Action string

const (
	ActionStatusChanged  Action = "STATUS_CHANGED"
	ActionStatusOverride Action = "STATUS_OVERRIDE"
	ActionEntityCreated  Action = "ENTITY_CREATED"
	ActionSettingsLoaded Action = "SETTINGS_LOADED"
)

// Context carries client metadata already extracted by the transport layer.
// The recorder never reaches into request objects.
type Context struct {
	IP        string
	UserAgent string
	Device    string
}

// Entry is one immutable audit record. Once written it is never updated or
// deleted; entries for one resource are retrievable in ascending timestamp
// order.
type Entry struct {
	ID           id.AuditEntryID
	Timestamp    time.Time
	ActorID      id.ActorID
	ActorEmail   string
	Action       Action
	ResourceType id.EntityType
	ResourceID   id.EntityID
	Before       string
	After        string
	Context      Context
	Extra        map[string]string
}

// Filters narrows a Search. Nil fields match everything.
type Filters struct {
	ResourceType *id.EntityType
	ResourceID   *id.EntityID
	ActorID      *id.ActorID
	Action       *Action
	FromDate     *time.Time
	ToDate       *time.Time
}

// SearchResult carries one page of matches plus the full match count
// independent of the page size.
type SearchResult struct {
	Items []Entry
	Total int
}
