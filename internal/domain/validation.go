package domain

import (
	"fmt"
	"strings"
)

// ParseRelationKind returns the relation kind named by raw.
// Matching is exact; anything else is reported as unrecognized.
func ParseRelationKind(raw string) (RelationKind, bool) {
	for _, r := range Relations {
		if string(r) == raw {
			return r, true
		}
	}
	return RelationKind(raw), false
}

// ValidateRelationKind validates a relation kind
func ValidateRelationKind(raw string) error {
	if _, ok := ParseRelationKind(raw); !ok {
		names := make([]string, len(Relations))
		for i, r := range Relations {
			names[i] = string(r)
		}
		return fmt.Errorf("invalid relation kind %q: must be one of: %s", raw, strings.Join(names, ", "))
	}
	return nil
}

// ValidateEntityKind validates an entity kind
func ValidateEntityKind(kind EntityKind) error {
	switch kind {
	case KindInstitution, KindAdjudicator, KindTeam:
		return nil
	default:
		return fmt.Errorf("invalid entity kind: must be one of: institution, adjudicator, team")
	}
}

// ValidateConflictField validates that field is held by entities of kind.
func ValidateConflictField(kind EntityKind, field ConflictField) error {
	if err := ValidateEntityKind(kind); err != nil {
		return err
	}
	if !Holds(kind, field) {
		return fmt.Errorf("invalid conflict field %q for %s", field, kind)
	}
	return nil
}
