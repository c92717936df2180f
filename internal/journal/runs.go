package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lherron/clashsync/internal/domain"
	"github.com/lherron/clashsync/internal/reconcile"
)

// ErrRunNotFound is returned when no run matches an id.
var ErrRunNotFound = errors.New("run not found")

// Run is the stored summary of one reconciliation run.
type Run struct {
	ID           string    `json:"id" yaml:"id"`
	StartedAt    time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time `json:"finished_at" yaml:"finished_at"`
	DryRun       bool      `json:"dry_run" yaml:"dry_run"`
	Full         bool      `json:"full" yaml:"full"`
	Rows         int       `json:"rows" yaml:"rows"`
	Mutations    int       `json:"mutations" yaml:"mutations"`
	Added        int       `json:"added" yaml:"added"`
	Skipped      int       `json:"skipped" yaml:"skipped"`
	TerminatedAt int       `json:"terminated_at,omitempty" yaml:"terminated_at,omitempty"`
	Succeeded    int       `json:"succeeded" yaml:"succeeded"`
	Failed       int       `json:"failed" yaml:"failed"`
	UpdateCount  int       `json:"update_count" yaml:"update_count"`
}

// UpdateRecord is one stored update and how sending it went.
type UpdateRecord struct {
	Entity   domain.Identity                            `json:"entity" yaml:"entity"`
	Kind     domain.EntityKind                          `json:"kind" yaml:"kind"`
	Fields   map[domain.ConflictField][]domain.Identity `json:"fields" yaml:"fields"`
	Status   string                                     `json:"status" yaml:"status"`
	Attempts int                                        `json:"attempts" yaml:"attempts"`
	Error    string                                     `json:"error,omitempty" yaml:"error,omitempty"`
}

// DiagnosticRecord is one stored unresolved or malformed row.
type DiagnosticRecord struct {
	Category string `json:"category" yaml:"category"`
	reconcile.Diagnostic `yaml:",inline"`
}

// RunDetail is a run with its updates and diagnostics.
type RunDetail struct {
	Run         `yaml:",inline"`
	Updates     []UpdateRecord     `json:"updates" yaml:"updates"`
	Diagnostics []DiagnosticRecord `json:"diagnostics" yaml:"diagnostics"`
}

const statusPlanned = "planned"

// RecordRun stores a finished run in one transaction. A cancelled run is
// still recorded, so ctx cancellation is ignored.
func (j *Journal) RecordRun(ctx context.Context, rep *reconcile.Report) error {
	ctx = context.WithoutCancel(ctx)
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, dry_run, full_mode, rows_read,
			mutations, added, skipped, terminated_at, succeeded, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rep.RunID, formatTime(rep.StartedAt), formatTime(rep.FinishedAt), rep.DryRun, rep.Full,
		rep.Rows, rep.Mutations, rep.Added, rep.Skipped, rep.TerminatedAt, rep.Succeeded, rep.Failed)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	results := make(map[domain.Identity]reconcile.UpdateResult, len(rep.Results))
	for _, r := range rep.Results {
		results[r.Entity] = r
	}

	for _, u := range rep.Updates {
		fields, err := json.Marshal(u.Fields)
		if err != nil {
			return fmt.Errorf("failed to encode fields for %s: %w", u.Entity, err)
		}
		status, attempts, errText := statusPlanned, 0, ""
		if r, ok := results[u.Entity]; ok {
			status, attempts, errText = string(r.Status), r.Attempts, r.Error
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_updates (run_id, entity, kind, fields, status, attempts, error)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, rep.RunID, string(u.Entity), string(u.Kind), string(fields), status, attempts, errText)
		if err != nil {
			return fmt.Errorf("failed to insert update for %s: %w", u.Entity, err)
		}
	}

	if err := insertDiagnostics(ctx, tx, rep.RunID, "unresolved", rep.Unresolved); err != nil {
		return err
	}
	if err := insertDiagnostics(ctx, tx, rep.RunID, "malformed", rep.Malformed); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

func insertDiagnostics(ctx context.Context, tx *sql.Tx, runID, category string, diags []reconcile.Diagnostic) error {
	for _, d := range diags {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_diagnostics (run_id, row_num, category, relation, subject, target, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, runID, d.Row, category, string(d.Relation), d.Subject, d.Target, d.Reason)
		if err != nil {
			return fmt.Errorf("failed to insert %s diagnostic for row %d: %w", category, d.Row, err)
		}
	}
	return nil
}

const runColumns = `
	r.id, r.started_at, r.finished_at, r.dry_run, r.full_mode, r.rows_read, r.mutations,
	r.added, r.skipped, r.terminated_at, r.succeeded, r.failed,
	(SELECT COUNT(*) FROM run_updates u WHERE u.run_id = r.id)
`

// Runs returns the most recent runs, newest first. A limit of zero or
// less returns every run.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs r ORDER BY r.started_at DESC, r.id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// Run returns one run by id or unique id prefix.
func (j *Journal) Run(ctx context.Context, id string) (*RunDetail, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}

	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ? OR r.id LIKE ? || '%' LIMIT 2`, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		matches = append(matches, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 2:
		if matches[0].ID != id && matches[1].ID != id {
			return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
		}
		if matches[1].ID == id {
			matches[0] = matches[1]
		}
	}

	detail := &RunDetail{Run: matches[0]}
	if detail.Updates, err = j.updates(ctx, detail.ID); err != nil {
		return nil, err
	}
	if detail.Diagnostics, err = j.diagnostics(ctx, detail.ID); err != nil {
		return nil, err
	}
	return detail, nil
}

func (j *Journal) updates(ctx context.Context, runID string) ([]UpdateRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT entity, kind, fields, status, attempts, error
		FROM run_updates WHERE run_id = ? ORDER BY entity
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query updates: %w", err)
	}
	defer rows.Close()

	var out []UpdateRecord
	for rows.Next() {
		var rec UpdateRecord
		var entity, kind, fields string
		if err := rows.Scan(&entity, &kind, &fields, &rec.Status, &rec.Attempts, &rec.Error); err != nil {
			return nil, fmt.Errorf("failed to scan update: %w", err)
		}
		rec.Entity = domain.Identity(entity)
		rec.Kind = domain.EntityKind(kind)
		if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode fields for %s: %w", entity, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (j *Journal) diagnostics(ctx context.Context, runID string) ([]DiagnosticRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT category, row_num, relation, subject, target, reason
		FROM run_diagnostics WHERE run_id = ? ORDER BY row_num, category
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []DiagnosticRecord
	for rows.Next() {
		var rec DiagnosticRecord
		var relation string
		if err := rows.Scan(&rec.Category, &rec.Row, &relation, &rec.Subject, &rec.Target, &rec.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		rec.Relation = domain.RelationKind(relation)
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var run Run
	var started, finished string
	err := s.Scan(&run.ID, &started, &finished, &run.DryRun, &run.Full, &run.Rows, &run.Mutations,
		&run.Added, &run.Skipped, &run.TerminatedAt, &run.Succeeded, &run.Failed, &run.UpdateCount)
	if err != nil {
		return run, fmt.Errorf("failed to scan run: %w", err)
	}
	if run.StartedAt, err = parseTime(started); err != nil {
		return run, err
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return run, err
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
