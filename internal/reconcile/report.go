package reconcile

import (
	"io"
	"time"

	"github.com/lherron/clashsync/internal/bulk"
	"github.com/lherron/clashsync/internal/domain"
)

// UpdateResult is the outcome of sending one update.
type UpdateResult struct {
	Entity   domain.Identity   `json:"entity" yaml:"entity"`
	Kind     domain.EntityKind `json:"kind" yaml:"kind"`
	Status   bulk.Status       `json:"status" yaml:"status"`
	Attempts int               `json:"attempts" yaml:"attempts"`
	Error    string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report describes one run.
type Report struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	DryRun     bool      `json:"dry_run" yaml:"dry_run"`
	Full       bool      `json:"full" yaml:"full"`

	Tally `yaml:",inline"`

	Duplicates map[domain.EntityKind][]string `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
	Updates    []Update                       `json:"updates" yaml:"updates"`
	Results    []UpdateResult                 `json:"results,omitempty" yaml:"results,omitempty"`
	Succeeded  int                            `json:"succeeded" yaml:"succeeded"`
	Failed     int                            `json:"failed" yaml:"failed"`

	summary *bulk.Result
}

// OK reports whether every sent update succeeded.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// ExitCode maps the send outcome to a process exit code. Updates left
// unsent by a cancelled run count as failed.
func (r *Report) ExitCode() int {
	switch {
	case r.Failed == 0:
		return 0
	case r.Succeeded > 0:
		return 5
	default:
		return 1
	}
}

// PrintSummary writes the send summary. Dry runs print nothing.
func (r *Report) PrintSummary(w io.Writer) {
	if r.summary == nil {
		return
	}
	r.summary.PrintSummary(w)
}
