// Package table holds the immutable transition table snapshot.
//
// A Table is built once per configuration version and never mutated
// afterwards, so concurrent readers need no synchronization. Reloads build a
// fresh Table and swap the pointer.
package table

import (
	"fmt"
	"sort"
	"strings"

	"shopflow/internal/workflow/models"
	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
)

// Definition is the raw rule set for one entity kind, as produced by the
// configuration collaborator.
type Definition struct {
	EntityType id.EntityType
	Statuses   []models.Status
	// Transitions maps each status to its allowed successors. Terminal
	// statuses map to an empty set.
	Transitions map[id.StatusCode][]id.StatusCode
	// Total asserts that Transitions covers every status. When set, a
	// status missing from the map is a configuration defect rather than an
	// implicit terminal.
	Total bool
}

type kindTable struct {
	statuses map[id.StatusCode]models.Status
	// next holds successors ordered by the target status SortOrder.
	next map[id.StatusCode][]models.Status
}

// Table answers transition queries for every configured entity kind.
// Read-only after construction.
type Table struct {
	kinds map[id.EntityType]kindTable
}

// New validates the definitions and builds a Table. Any defect fails the
// whole build with CodeMalformedTable; a partially-valid table never serves.
func New(defs []Definition) (*Table, error) {
	kinds := make(map[id.EntityType]kindTable, len(defs))
	var defects []string

	for _, def := range defs {
		if def.EntityType.IsNil() {
			defects = append(defects, "definition with empty entity type")
			continue
		}
		if _, dup := kinds[def.EntityType]; dup {
			defects = append(defects, fmt.Sprintf("%s: duplicate definition", def.EntityType))
			continue
		}

		statuses := make(map[id.StatusCode]models.Status, len(def.Statuses))
		for _, st := range def.Statuses {
			if _, dup := statuses[st.Code]; dup {
				defects = append(defects, fmt.Sprintf("%s: duplicate status %s", def.EntityType, st.Code))
				continue
			}
			statuses[st.Code] = st
		}

		next := make(map[id.StatusCode][]models.Status, len(def.Transitions))
		for from, targets := range def.Transitions {
			if _, ok := statuses[from]; !ok {
				defects = append(defects, fmt.Sprintf("%s: transition from undefined status %s", def.EntityType, from))
				continue
			}
			successors := make([]models.Status, 0, len(targets))
			seen := make(map[id.StatusCode]struct{}, len(targets))
			for _, to := range targets {
				target, ok := statuses[to]
				if !ok {
					defects = append(defects, fmt.Sprintf("%s: transition %s -> undefined status %s", def.EntityType, from, to))
					continue
				}
				if _, dup := seen[to]; dup {
					continue
				}
				seen[to] = struct{}{}
				successors = append(successors, target)
			}
			sort.SliceStable(successors, func(i, j int) bool {
				return successors[i].SortOrder < successors[j].SortOrder
			})
			next[from] = successors
		}

		if def.Total {
			for code := range statuses {
				if _, ok := def.Transitions[code]; !ok {
					defects = append(defects, fmt.Sprintf("%s: status %s has no transition entry in a total table", def.EntityType, code))
				}
			}
		}

		kinds[def.EntityType] = kindTable{statuses: statuses, next: next}
	}

	if len(defects) > 0 {
		sort.Strings(defects)
		return nil, dErrors.New(dErrors.CodeMalformedTable, strings.Join(defects, "; "))
	}
	return &Table{kinds: kinds}, nil
}

// AllowedNext returns the statuses reachable from the given status, ordered
// by SortOrder. Empty for terminal statuses and unknown inputs.
func (t *Table) AllowedNext(entityType id.EntityType, from id.StatusCode) []models.Status {
	kind, ok := t.kinds[entityType]
	if !ok {
		return nil
	}
	successors := kind.next[from]
	out := make([]models.Status, len(successors))
	copy(out, successors)
	return out
}

// IsAllowed reports whether the table permits from -> to.
func (t *Table) IsAllowed(entityType id.EntityType, from, to id.StatusCode) bool {
	kind, ok := t.kinds[entityType]
	if !ok {
		return false
	}
	for _, st := range kind.next[from] {
		if st.Code == to {
			return true
		}
	}
	return false
}

// HasEntityType reports whether the table carries rules for the kind.
func (t *Table) HasEntityType(entityType id.EntityType) bool {
	_, ok := t.kinds[entityType]
	return ok
}

// Statuses returns every status defined for the kind, ordered by SortOrder.
func (t *Table) Statuses(entityType id.EntityType) []models.Status {
	kind, ok := t.kinds[entityType]
	if !ok {
		return nil
	}
	out := make([]models.Status, 0, len(kind.statuses))
	for _, st := range kind.statuses {
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}
