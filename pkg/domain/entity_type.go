package domain

import (
	"fmt"
	"regexp"
)

// EntityType names a kind of tracked entity. The set of valid kinds is
// configuration-driven, so this primitive only enforces the identifier shape
// at parse time, not membership in a closed list.
type EntityType string

// Entity kinds shipped with the default configuration.
const (
	EntityTypeWorkOrder EntityType = "work_order"
	EntityTypeInvoice   EntityType = "invoice"
)

var entityTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// ParseEntityType validates and returns an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	if !entityTypePattern.MatchString(s) {
		return "", fmt.Errorf("invalid entity type: %q", s)
	}
	return EntityType(s), nil
}

func (t EntityType) String() string { return string(t) }
func (t EntityType) IsNil() bool    { return t == "" }
