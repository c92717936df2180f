package reconcile

import (
	"errors"

	"github.com/lherron/clashsync/internal/domain"
	"github.com/lherron/clashsync/internal/sheet"
)

// CheckReport summarizes a sheet without consulting the remote.
type CheckReport struct {
	Rows         int                         `json:"rows" yaml:"rows"`
	Relations    map[domain.RelationKind]int `json:"relations" yaml:"relations"`
	Malformed    []Diagnostic                `json:"malformed" yaml:"malformed"`
	TerminatedAt int                         `json:"terminated_at,omitempty" yaml:"terminated_at,omitempty"`
}

// Check parses rows the way a run would, stopping at the same terminator.
func Check(rows []sheet.Row) (*CheckReport, error) {
	rep := &CheckReport{Relations: make(map[domain.RelationKind]int)}
	for _, row := range rows {
		rep.Rows++
		rec, err := row.Record()
		if err != nil {
			var rowErr *sheet.RowError
			if !errors.As(err, &rowErr) {
				return nil, err
			}
			rep.Malformed = append(rep.Malformed, diagnostic(rec, rowErr.Reason))
			continue
		}
		if _, ok := domain.ParseRelationKind(string(rec.Relation)); !ok {
			rep.TerminatedAt = rec.Row
			break
		}
		rep.Relations[rec.Relation]++
	}
	return rep, nil
}
