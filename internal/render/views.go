package render

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lherron/clashsync/internal/domain"
	"github.com/lherron/clashsync/internal/journal"
	"github.com/lherron/clashsync/internal/reconcile"
)

// Report renders the outcome of a sync or plan.
func (r *Renderer) Report(rep *reconcile.Report) error {
	if r.Structured() {
		return r.Encode(rep)
	}

	status := make(map[domain.Identity]reconcile.UpdateResult, len(rep.Results))
	for _, res := range rep.Results {
		status[res.Entity] = res
	}

	var rows [][]string
	for _, u := range rep.Updates {
		state := "planned"
		if res, ok := status[u.Entity]; ok {
			state = string(res.Status)
		}
		for _, field := range sortedFields(u.Fields) {
			rows = append(rows, []string{
				string(u.Entity),
				string(u.Kind),
				string(field),
				joinIDs(u.Fields[field]),
				state,
			})
		}
	}
	if err := r.RenderRows([]string{"ENTITY", "KIND", "FIELD", "CONFLICTS", "STATUS"}, rows); err != nil {
		return err
	}

	if err := r.diagnostics(rep.Unresolved, rep.Malformed); err != nil {
		return err
	}

	if r.opts.Format == FormatTSV {
		return nil
	}
	r.Printf("\nrows %d  mutations %d  added %d  skipped %d  unresolved %d  malformed %d\n",
		rep.Rows, rep.Mutations, rep.Added, rep.Skipped, len(rep.Unresolved), len(rep.Malformed))
	if rep.TerminatedAt > 0 {
		r.Printf("stopped at end-of-data row %d\n", rep.TerminatedAt)
	}
	for _, kind := range sortedKinds(rep.Duplicates) {
		r.Printf("duplicate %s names: %s\n", kind, strings.Join(rep.Duplicates[kind], ", "))
	}
	return nil
}

// Check renders an offline sheet check.
func (r *Renderer) Check(rep *reconcile.CheckReport) error {
	if r.Structured() {
		return r.Encode(rep)
	}

	var rows [][]string
	for _, rel := range domain.Relations {
		rows = append(rows, []string{string(rel), strconv.Itoa(rep.Relations[rel])})
	}
	if err := r.RenderRows([]string{"RELATION", "ROWS"}, rows); err != nil {
		return err
	}
	if err := r.diagnostics(nil, rep.Malformed); err != nil {
		return err
	}
	if r.opts.Format == FormatTSV {
		return nil
	}
	r.Printf("\nrows %d  malformed %d\n", rep.Rows, len(rep.Malformed))
	if rep.TerminatedAt > 0 {
		r.Printf("stopped at end-of-data row %d\n", rep.TerminatedAt)
	}
	return nil
}

// Runs renders a run listing.
func (r *Renderer) Runs(runs []journal.Run) error {
	if r.Structured() {
		if r.opts.Format == FormatNDJSON {
			items := make([]any, len(runs))
			for i := range runs {
				items[i] = runs[i]
			}
			return r.RenderNDJSON(items)
		}
		return r.Encode(runs)
	}

	rows := make([][]string, len(runs))
	for i, run := range runs {
		mode := "sync"
		if run.DryRun {
			mode = "plan"
		}
		rows[i] = []string{
			shortID(run.ID),
			run.StartedAt.Local().Format(time.DateTime),
			mode,
			strconv.Itoa(run.Rows),
			strconv.Itoa(run.Added),
			strconv.Itoa(run.UpdateCount),
			strconv.Itoa(run.Failed),
		}
	}
	return r.RenderRows([]string{"ID", "STARTED", "MODE", "ROWS", "ADDED", "UPDATES", "FAILED"}, rows)
}

// RunDetail renders one journaled run.
func (r *Renderer) RunDetail(run *journal.RunDetail) error {
	if r.Structured() {
		return r.Encode(run)
	}

	r.Printf("run %s\nstarted %s  finished %s\n\n", run.ID,
		run.StartedAt.Local().Format(time.DateTime), run.FinishedAt.Local().Format(time.DateTime))

	var rows [][]string
	for _, u := range run.Updates {
		for _, field := range sortedFields(u.Fields) {
			rows = append(rows, []string{string(u.Entity), string(field), joinIDs(u.Fields[field]), u.Status, u.Error})
		}
	}
	if err := r.RenderRows([]string{"ENTITY", "FIELD", "CONFLICTS", "STATUS", "ERROR"}, rows); err != nil {
		return err
	}

	if len(run.Diagnostics) == 0 {
		return nil
	}
	diag := make([][]string, len(run.Diagnostics))
	for i, d := range run.Diagnostics {
		diag[i] = []string{strconv.Itoa(d.Row), d.Category, string(d.Relation), d.Subject, d.Target, d.Reason}
	}
	r.Printf("\n")
	return r.RenderRows([]string{"ROW", "CATEGORY", "RELATION", "SUBJECT", "TARGET", "REASON"}, diag)
}

func (r *Renderer) diagnostics(unresolved, malformed []reconcile.Diagnostic) error {
	if len(unresolved)+len(malformed) == 0 {
		return nil
	}
	var rows [][]string
	add := func(category string, diags []reconcile.Diagnostic) {
		for _, d := range diags {
			rows = append(rows, []string{strconv.Itoa(d.Row), category, string(d.Relation), d.Subject, d.Target, d.Reason})
		}
	}
	add("unresolved", unresolved)
	add("malformed", malformed)
	sort.SliceStable(rows, func(i, j int) bool {
		a, _ := strconv.Atoi(rows[i][0])
		b, _ := strconv.Atoi(rows[j][0])
		return a < b
	})

	r.Printf("\n")
	return r.RenderRows([]string{"ROW", "CATEGORY", "RELATION", "SUBJECT", "TARGET", "REASON"}, rows)
}

func sortedFields(m map[domain.ConflictField][]domain.Identity) []domain.ConflictField {
	out := make([]domain.ConflictField, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedKinds(m map[domain.EntityKind][]string) []domain.EntityKind {
	out := make([]domain.EntityKind, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func joinIDs(ids []domain.Identity) string {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = string(id)
	}
	return strings.Join(strs, " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
