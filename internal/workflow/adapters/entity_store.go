// Package adapters connects the transition guard to the concrete entity
// stores.
package adapters

import (
	"context"
	"fmt"

	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
)

// StatusWriter is the per-kind slice of a store the guard needs: the
// optimistic conditional status write.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, entityID id.EntityID, expectedCurrent, newStatus id.StatusCode) (id.StatusCode, error)
}

// Mux routes status writes to the store owning each entity kind. Register
// everything at startup; Mux is read-only afterwards.
type Mux struct {
	writers map[id.EntityType]StatusWriter
}

func NewMux() *Mux {
	return &Mux{writers: make(map[id.EntityType]StatusWriter)}
}

func (m *Mux) Register(entityType id.EntityType, writer StatusWriter) {
	m.writers[entityType] = writer
}

// UpdateStatus implements ports.EntityStore. A kind without a registered
// store is a wiring defect: configuration can serve rules for a kind only
// when startup also registered its store.
func (m *Mux) UpdateStatus(ctx context.Context, entityType id.EntityType, entityID id.EntityID, expectedCurrent, newStatus id.StatusCode) (id.StatusCode, error) {
	writer, ok := m.writers[entityType]
	if !ok {
		return "", dErrors.New(dErrors.CodeInternal,
			fmt.Sprintf("no entity store registered for %s", entityType))
	}
	return writer.UpdateStatus(ctx, entityID, expectedCurrent, newStatus)
}
