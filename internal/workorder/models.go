// Package workorder manages the workshop's primary tracked entity. Work
// orders own their descriptive fields; their status only ever changes
// through the transition guard.
package workorder

import (
	"strings"
	"time"

	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
)

// WorkOrder is one repair or service job.
type WorkOrder struct {
	ID           id.EntityID
	Title        string
	Description  string
	CustomerName string
	Status       id.StatusCode
	CreatedBy    id.ActorID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreatePayload is the input to Create. The initial status comes from the
// workflow configuration, never from the caller.
type CreatePayload struct {
	Title        string
	Description  string
	CustomerName string
	CreatedBy    id.ActorID
}

func (p CreatePayload) Validate() error {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return dErrors.New(dErrors.CodeValidation, "title is required")
	case p.CreatedBy.IsNil():
		return dErrors.New(dErrors.CodeValidation, "creator is required")
	}
	return nil
}

// Filters narrows a List. Nil fields match everything.
type Filters struct {
	Status *id.StatusCode
	Limit  int
	Offset int
}
