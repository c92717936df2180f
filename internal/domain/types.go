package domain

import "sort"

// EntityKind represents one of the participant kinds that conflicts refer to
type EntityKind string

const (
	KindInstitution EntityKind = "institution"
	KindAdjudicator EntityKind = "adjudicator"
	KindTeam        EntityKind = "team"
)

// Kinds lists every entity kind in directory build order.
var Kinds = []EntityKind{KindInstitution, KindAdjudicator, KindTeam}

// Identity is the stable resource location of one entity on the remote system.
// The zero value is the unresolved identity and never addresses anything.
type Identity string

// IsZero reports whether the identity is unresolved.
func (id Identity) IsZero() bool {
	return id == ""
}

// RelationKind is the "nature of clash" column of a clash row
type RelationKind string

const (
	RelationJudgeTeam        RelationKind = "Judge-Team"
	RelationJudgeJudge       RelationKind = "Judge-Judge"
	RelationJudgeInstitution RelationKind = "Judge-Institution"
	RelationTeamInstitution  RelationKind = "Team-Institution"
)

// Relations lists the recognized relation kinds.
var Relations = []RelationKind{
	RelationJudgeTeam,
	RelationJudgeJudge,
	RelationJudgeInstitution,
	RelationTeamInstitution,
}

// ConflictField names a conflict list stored on a remote entity.
type ConflictField string

const (
	FieldTeamConflicts        ConflictField = "team_conflicts"
	FieldAdjudicatorConflicts ConflictField = "adjudicator_conflicts"
	FieldInstitutionConflicts ConflictField = "institution_conflicts"
)

// FieldsFor returns the conflict fields held by entities of the given kind.
// Institutions hold none.
func FieldsFor(kind EntityKind) []ConflictField {
	switch kind {
	case KindAdjudicator:
		return []ConflictField{FieldTeamConflicts, FieldAdjudicatorConflicts, FieldInstitutionConflicts}
	case KindTeam:
		return []ConflictField{FieldInstitutionConflicts}
	default:
		return nil
	}
}

// Holds reports whether entities of kind hold the given conflict field.
func Holds(kind EntityKind, field ConflictField) bool {
	for _, f := range FieldsFor(kind) {
		if f == field {
			return true
		}
	}
	return false
}

// ClashRecord is one declared clash read from the conflicts sheet.
// Row is the 1-based sheet row the record came from.
type ClashRecord struct {
	Row      int          `json:"row" yaml:"row"`
	Relation RelationKind `json:"relation" yaml:"relation"`
	Subject  string       `json:"subject" yaml:"subject"`
	Target   string       `json:"target" yaml:"target"`
}

// Snapshot is the part of a remote entity listing the reconciler needs:
// the display name used for lookup, the identity, and any existing conflict lists.
type Snapshot struct {
	Kind      EntityKind
	Name      string
	Identity  Identity
	Conflicts map[ConflictField][]Identity
}

// SortIdentities sorts ids in place and returns them.
func SortIdentities(ids []Identity) []Identity {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
