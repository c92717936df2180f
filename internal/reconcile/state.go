package reconcile

import (
	"errors"
	"fmt"

	"github.com/lherron/clashsync/internal/classify"
	"github.com/lherron/clashsync/internal/conflicts"
	"github.com/lherron/clashsync/internal/directory"
	"github.com/lherron/clashsync/internal/domain"
	"github.com/lherron/clashsync/internal/sheet"
	"github.com/rs/zerolog"
)

// Diagnostic describes a row that produced no mutation and needs a human
// to look at it.
type Diagnostic struct {
	Row      int                 `json:"row" yaml:"row"`
	Relation domain.RelationKind `json:"relation" yaml:"relation"`
	Subject  string              `json:"subject" yaml:"subject"`
	Target   string              `json:"target" yaml:"target"`
	Reason   string              `json:"reason" yaml:"reason"`
}

// Tally counts what classification did with the rows.
type Tally struct {
	// Rows is the number of rows examined, including a terminator row.
	Rows       int          `json:"rows" yaml:"rows"`
	Mutations  int          `json:"mutations" yaml:"mutations"`
	Added      int          `json:"added" yaml:"added"`
	Skipped    int          `json:"skipped" yaml:"skipped"`
	Unresolved []Diagnostic `json:"unresolved" yaml:"unresolved"`
	Malformed  []Diagnostic `json:"malformed" yaml:"malformed"`

	// TerminatedAt is the row holding the end-of-data marker, or 0.
	TerminatedAt int `json:"terminated_at,omitempty" yaml:"terminated_at,omitempty"`
}

// State is the directory and conflict graph of one run.
type State struct {
	Directory *directory.Directory
	Conflicts *conflicts.Accumulator
}

// NewState indexes the listings and seeds the conflict graph from the
// adjudicators' and teams' existing conflicts.
func NewState(institutions, adjudicators, teams []domain.Snapshot) *State {
	acc := conflicts.New()
	acc.Seed(adjudicators...)
	acc.Seed(teams...)
	return &State{
		Directory: directory.Build(institutions, adjudicators, teams),
		Conflicts: acc,
	}
}

// Apply classifies rows in order and adds every resolved conflict to the
// graph. It stops at the first row whose relation kind is not recognized.
func (s *State) Apply(rows []sheet.Row, log zerolog.Logger) (Tally, error) {
	var tally Tally

	for _, row := range rows {
		tally.Rows++

		rec, err := row.Record()
		if err != nil {
			var rowErr *sheet.RowError
			if !errors.As(err, &rowErr) {
				return tally, err
			}
			d := diagnostic(rec, rowErr.Reason)
			tally.Malformed = append(tally.Malformed, d)
			log.Warn().Int("row", rec.Row).Str("relation", string(rec.Relation)).
				Str("reason", rowErr.Reason).Msg("malformed clash row")
			continue
		}

		res := classify.Classify(rec, s.Directory)
		switch res.Outcome {
		case classify.Terminate:
			tally.TerminatedAt = rec.Row
			log.Info().Int("row", rec.Row).Str("relation", string(rec.Relation)).
				Msg("end of clash data; remaining rows ignored")
			return tally, nil

		case classify.Skip:
			tally.Skipped++
			log.Debug().Int("row", rec.Row).Str("relation", string(rec.Relation)).
				Str("subject", rec.Subject).Msg("subject not recognized; row skipped")

		case classify.Unresolved:
			tally.Unresolved = append(tally.Unresolved, diagnostic(rec, "unresolved target"))
			log.Warn().Int("row", rec.Row).Str("relation", string(rec.Relation)).
				Str("subject", rec.Subject).Str("target", rec.Target).Msg("unresolved clash target")

		case classify.Mutation:
			added, err := s.Conflicts.AddConflict(res.Owner, res.Field, res.Conflict)
			if err != nil {
				return tally, fmt.Errorf("row %d: %w", rec.Row, err)
			}
			tally.Mutations++
			if added {
				tally.Added++
			}
			log.Debug().Int("row", rec.Row).Str("owner", string(res.Owner)).
				Str("field", string(res.Field)).Str("conflict", string(res.Conflict)).
				Bool("added", added).Bool("reversed", res.Reversed).Msg("clash applied")
		}
	}

	return tally, nil
}

func diagnostic(rec domain.ClashRecord, reason string) Diagnostic {
	return Diagnostic{
		Row:      rec.Row,
		Relation: rec.Relation,
		Subject:  rec.Subject,
		Target:   rec.Target,
		Reason:   reason,
	}
}
