package domain

import (
	"fmt"
	"regexp"
)

// StatusCode names a point in an entity lifecycle. Codes are unique per
// entity kind; the configured transition table defines which codes exist.
type StatusCode string

var statusCodePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]{0,63}$`)

// ParseStatusCode validates and returns a StatusCode.
func ParseStatusCode(s string) (StatusCode, error) {
	if !statusCodePattern.MatchString(s) {
		return "", fmt.Errorf("invalid status code: %q", s)
	}
	return StatusCode(s), nil
}

func (c StatusCode) String() string { return string(c) }
func (c StatusCode) IsNil() bool    { return c == "" }

// Role names an actor role as asserted by the authentication collaborator.
// Role semantics (which roles may override the transition table) live in
// configuration, not here.
type Role string

func (r Role) String() string { return string(r) }
func (r Role) IsNil() bool    { return r == "" }
