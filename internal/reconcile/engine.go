package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lherron/clashsync/internal/bulk"
	"github.com/lherron/clashsync/internal/domain"
	"github.com/lherron/clashsync/internal/sheet"
	"github.com/lherron/clashsync/internal/tabbycat"
	"github.com/rs/zerolog"
)

// Remote is the tournament API as the engine sees it.
type Remote interface {
	Listing(ctx context.Context, kind domain.EntityKind) ([]domain.Snapshot, error)
	Patch(ctx context.Context, entity domain.Identity, fields map[domain.ConflictField][]domain.Identity) error
}

// Recorder keeps a record of finished runs.
type Recorder interface {
	RecordRun(ctx context.Context, rep *Report) error
}

// Options configures an Engine.
type Options struct {
	// DryRun computes updates without sending them.
	DryRun bool

	// Full re-sends every non-empty field of every entity instead of only
	// the fields that changed.
	Full bool

	Jobs    int
	Retries int
	Backoff time.Duration

	// Retryable classifies send errors. Defaults to tabbycat.Retryable.
	Retryable func(error) bool

	// Recorder is optional.
	Recorder Recorder

	Logger zerolog.Logger
}

// Engine runs one reconciliation of a clash sheet against the remote.
type Engine struct {
	remote Remote
	opts   Options
}

// New returns an Engine.
func New(remote Remote, opts Options) *Engine {
	if opts.Retryable == nil {
		opts.Retryable = tabbycat.Retryable
	}
	if opts.Backoff == 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	return &Engine{remote: remote, opts: opts}
}

// Load fetches institutions, adjudicators and teams, in that order, and
// builds the run state. Any listing failure aborts the run.
func (e *Engine) Load(ctx context.Context) (*State, error) {
	lists := make(map[domain.EntityKind][]domain.Snapshot, len(domain.Kinds))
	for _, kind := range domain.Kinds {
		snaps, err := e.remote.Listing(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", kind, err)
		}
		e.opts.Logger.Debug().Str("kind", string(kind)).Int("count", len(snaps)).Msg("listing loaded")
		lists[kind] = snaps
	}
	return NewState(
		lists[domain.KindInstitution],
		lists[domain.KindAdjudicator],
		lists[domain.KindTeam],
	), nil
}

// Run loads remote state, applies the rows, and sends the resulting
// updates unless the engine is in dry-run mode. The returned error is set
// only when the run could not get as far as sending; per-update failures
// are reported in the Report.
func (e *Engine) Run(ctx context.Context, rows []sheet.Row) (*Report, error) {
	log := e.opts.Logger
	rep := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		DryRun:    e.opts.DryRun,
		Full:      e.opts.Full,
	}

	state, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	rep.Duplicates = state.Directory.Duplicates()
	for kind, names := range rep.Duplicates {
		log.Warn().Str("kind", string(kind)).Strs("names", names).
			Msg("duplicate names in listing; last entry wins")
	}

	tally, err := state.Apply(rows, log)
	if err != nil {
		return nil, err
	}
	rep.Tally = tally
	rep.Updates = Emit(state.Conflicts, e.opts.Full)

	if !e.opts.DryRun {
		rep.Results, rep.summary = e.send(ctx, rep.Updates)
		for _, r := range rep.Results {
			if r.Status == bulk.StatusSucceeded {
				rep.Succeeded++
			} else {
				rep.Failed++
			}
		}
	}
	rep.FinishedAt = time.Now().UTC()

	log.Info().Str("run_id", rep.RunID).Int("rows", tally.Rows).Int("added", tally.Added).
		Int("unresolved", len(tally.Unresolved)).Int("updates", len(rep.Updates)).
		Int("failed", rep.Failed).Bool("dry_run", rep.DryRun).Msg("reconciliation finished")

	if e.opts.Recorder != nil {
		if err := e.opts.Recorder.RecordRun(ctx, rep); err != nil {
			log.Error().Err(err).Str("run_id", rep.RunID).Msg("failed to record run")
		}
	}
	return rep, nil
}

func (e *Engine) send(ctx context.Context, updates []Update) ([]UpdateResult, *bulk.Result) {
	byEntity := make(map[string]Update, len(updates))
	items := make([]string, len(updates))
	for i, u := range updates {
		items[i] = string(u.Entity)
		byEntity[items[i]] = u
	}

	op := &bulk.Operation{
		Jobs:            e.opts.Jobs,
		Retries:         e.opts.Retries,
		Backoff:         e.opts.Backoff,
		ContinueOnError: true,
		Retryable:       e.opts.Retryable,
		Logger:          e.opts.Logger,
	}
	res := op.Execute(ctx, items, func(ctx context.Context, item string) error {
		u := byEntity[item]
		e.opts.Logger.Debug().Str("entity", item).Str("fields", formatFields(u)).Msg("sending update")
		return e.remote.Patch(ctx, u.Entity, u.Fields)
	})

	out := make([]UpdateResult, len(res.Items))
	for i, item := range res.Items {
		out[i] = UpdateResult{
			Entity:   domain.Identity(item.Item),
			Kind:     byEntity[item.Item].Kind,
			Status:   item.Status,
			Attempts: item.Attempts,
		}
		if item.Err != nil {
			out[i].Error = item.Err.Error()
			e.opts.Logger.Error().Err(item.Err).Str("entity", item.Item).
				Str("status", string(item.Status)).Int("attempts", item.Attempts).Msg("update failed")
		}
	}
	return out, res
}
