// Package classify decides what a single clash record means against a
// directory of known entities.
package classify

import (
	"github.com/lherron/clashsync/internal/domain"
)

// Outcome is the kind of result a record classifies to.
type Outcome int

const (
	// Mutation means both parties resolved; the result names the conflict to add.
	Mutation Outcome = iota

	// Skip means the subject is not an entity of the expected kind. No diagnostic.
	Skip

	// Unresolved means the subject resolved but the target did not.
	Unresolved

	// Terminate means the relation kind is not recognized; it marks the end of data.
	Terminate
)

func (o Outcome) String() string {
	switch o {
	case Mutation:
		return "mutation"
	case Skip:
		return "skip"
	case Unresolved:
		return "unresolved"
	case Terminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// Lookup resolves a display name for one entity kind.
type Lookup interface {
	Lookup(kind domain.EntityKind, name string) (domain.Identity, bool)
}

// Result is the classification of one record.
// Owner, Field and Conflict are set only for Mutation.
type Result struct {
	Outcome  Outcome
	Record   domain.ClashRecord
	Owner    domain.Identity
	Field    domain.ConflictField
	Conflict domain.Identity

	// Reversed is set when a Judge-Team record listed the team first.
	Reversed bool
}

// Classify resolves rec against dir.
func Classify(rec domain.ClashRecord, dir Lookup) Result {
	res := Result{Record: rec}

	switch rec.Relation {
	case domain.RelationJudgeTeam:
		return judgeTeam(res, dir)
	case domain.RelationJudgeJudge:
		return simple(res, dir, domain.KindAdjudicator, domain.KindAdjudicator, domain.FieldAdjudicatorConflicts)
	case domain.RelationJudgeInstitution:
		return simple(res, dir, domain.KindAdjudicator, domain.KindInstitution, domain.FieldInstitutionConflicts)
	case domain.RelationTeamInstitution:
		return simple(res, dir, domain.KindTeam, domain.KindInstitution, domain.FieldInstitutionConflicts)
	default:
		res.Outcome = Terminate
		return res
	}
}

// judgeTeam accepts the adjudicator and team in either order. The subject
// is tried as an adjudicator first; only if that fails is it tried as a team.
func judgeTeam(res Result, dir Lookup) Result {
	rec := res.Record

	if adj, ok := dir.Lookup(domain.KindAdjudicator, rec.Subject); ok {
		team, ok := dir.Lookup(domain.KindTeam, rec.Target)
		if !ok {
			res.Outcome = Unresolved
			return res
		}
		return mutation(res, adj, domain.FieldTeamConflicts, team)
	}

	if team, ok := dir.Lookup(domain.KindTeam, rec.Subject); ok {
		adj, ok := dir.Lookup(domain.KindAdjudicator, rec.Target)
		if !ok {
			res.Outcome = Unresolved
			return res
		}
		res.Reversed = true
		return mutation(res, adj, domain.FieldTeamConflicts, team)
	}

	res.Outcome = Skip
	return res
}

// simple handles the relations with a fixed direction. Only the subject's
// set is touched, so Judge-Judge is recorded one way.
func simple(res Result, dir Lookup, subjectKind, targetKind domain.EntityKind, field domain.ConflictField) Result {
	owner, ok := dir.Lookup(subjectKind, res.Record.Subject)
	if !ok {
		res.Outcome = Skip
		return res
	}
	target, ok := dir.Lookup(targetKind, res.Record.Target)
	if !ok {
		res.Outcome = Unresolved
		return res
	}
	return mutation(res, owner, field, target)
}

func mutation(res Result, owner domain.Identity, field domain.ConflictField, conflict domain.Identity) Result {
	res.Outcome = Mutation
	res.Owner = owner
	res.Field = field
	res.Conflict = conflict
	return res
}
