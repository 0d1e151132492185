// Package settings owns the configurable workflow rules: transition tables,
// escalation roles, and transition notifications. Documents live in a
// settings store as versioned JSON; the service validates them into an
// immutable snapshot served to the rest of the system.
package settings

import (
	"encoding/json"
	"time"
)

// Settings group keys.
const (
	GroupWorkflowRules = "workflow_rules"
	GroupEscalation    = "escalation"
)

// Record is one stored settings document. Version increments on every save.
type Record struct {
	Group     string
	Document  json.RawMessage
	Version   int
	UpdatedAt time.Time
}

// WorkflowRulesDoc is the persisted form of the workflow_rules group.
type WorkflowRulesDoc struct {
	Entities []EntityRules `json:"entities"`
}

// EntityRules configures the lifecycle of one entity kind.
type EntityRules struct {
	EntityType  string              `json:"entity_type"`
	Statuses    []StatusDef         `json:"statuses"`
	Transitions map[string][]string `json:"transitions"`
	// Total requires Transitions to cover every status; terminal statuses
	// must then map to an empty list explicitly.
	Total bool `json:"total"`
	// InitialStatus is where newly created entities start. Defaults to
	// the status with the lowest sort order.
	InitialStatus string `json:"initial_status,omitempty"`
	// IdempotentNoOp makes same-status requests succeed without writing.
	IdempotentNoOp bool `json:"idempotent_no_op,omitempty"`
}

// StatusDef is one lifecycle status.
type StatusDef struct {
	Code      string `json:"code"`
	Label     string `json:"label"`
	SortOrder int    `json:"sort_order"`
}

// EscalationDoc is the persisted form of the escalation group.
type EscalationDoc struct {
	Entities []EntityEscalation `json:"entities"`
}

// EntityEscalation configures overrides and notifications for one kind.
type EntityEscalation struct {
	EntityType string `json:"entity_type"`
	// ElevatedRoles may bypass the transition table via override.
	ElevatedRoles []string `json:"elevated_roles"`
	// Notifications fire when a transition lands on ToStatus.
	Notifications []NotificationRule `json:"notifications,omitempty"`
}

// NotificationRule maps a target status to the notification it produces.
type NotificationRule struct {
	ToStatus string `json:"to_status"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Message  string `json:"message,omitempty"`
}
