package bulk

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Status is the outcome of one item
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusRetryable Status = "retryable_failure"
	StatusFatal     Status = "fatal_failure"
	StatusSkipped   Status = "skipped"
)

// Operation represents a bulk operation configuration
type Operation struct {
	// Jobs is the number of workers. Zero or one runs sequentially.
	Jobs int

	// Retries is how many extra attempts a retryable failure gets.
	Retries int

	// Backoff is the wait before retry n, multiplied by n.
	Backoff time.Duration

	ContinueOnError bool

	// Retryable classifies errors. Nil treats every error as fatal.
	Retryable func(error) bool

	Logger zerolog.Logger
}

// Result represents the result of a bulk operation
type Result struct {
	TotalItems int
	Succeeded  int
	Failed     int

	// Skipped counts items never attempted, after cancellation or a stop
	// on error.
	Skipped int
	Items      []ItemResult
	Errors     []ItemError
}

// ItemResult is the final state of one item, in input order.
type ItemResult struct {
	Item     string
	Status   Status
	Attempts int
	Err      error
}

// ItemError represents an error for a specific item
type ItemError struct {
	Item  string
	Error error
}

// ItemFunc is the function to execute for each item
type ItemFunc func(ctx context.Context, item string) error

// Execute runs fn for every item and reports per-item outcomes.
func (op *Operation) Execute(ctx context.Context, items []string, fn ItemFunc) *Result {
	result := &Result{
		TotalItems: len(items),
		Items:      make([]ItemResult, len(items)),
	}
	for i, item := range items {
		result.Items[i] = ItemResult{Item: item, Status: StatusSkipped}
	}

	if len(items) == 0 {
		return result
	}

	if op.Jobs <= 1 {
		op.executeSequential(ctx, items, fn, result)
	} else {
		op.executeParallel(ctx, items, fn, result)
	}

	for _, r := range result.Items {
		switch r.Status {
		case StatusSucceeded:
			result.Succeeded++
		case StatusRetryable, StatusFatal:
			result.Failed++
			result.Errors = append(result.Errors, ItemError{Item: r.Item, Error: r.Err})
		case StatusSkipped:
			result.Skipped++
		}
	}
	return result
}

// executeSequential processes items one by one
func (op *Operation) executeSequential(ctx context.Context, items []string, fn ItemFunc, result *Result) {
	for i, item := range items {
		if ctx.Err() != nil {
			return
		}
		result.Items[i] = op.run(ctx, item, fn)
		if result.Items[i].Status != StatusSucceeded && !op.ContinueOnError {
			return
		}
	}
}

// executeParallel processes items using a worker pool
func (op *Operation) executeParallel(ctx context.Context, items []string, fn ItemFunc, result *Result) {
	workers := op.Jobs
	if workers > len(items) {
		workers = len(items)
	}

	queue := make(chan int, len(items))
	for i := range items {
		queue <- i
	}
	close(queue)

	var stop int32
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				if atomic.LoadInt32(&stop) == 1 || ctx.Err() != nil {
					continue
				}
				// each index is written by exactly one worker
				result.Items[i] = op.run(ctx, items[i], fn)
				if result.Items[i].Status != StatusSucceeded && !op.ContinueOnError {
					atomic.StoreInt32(&stop, 1)
				}
			}
		}()
	}
	wg.Wait()
}

// run executes one item, retrying retryable failures up to op.Retries times.
func (op *Operation) run(ctx context.Context, item string, fn ItemFunc) ItemResult {
	res := ItemResult{Item: item}
	for {
		res.Attempts++
		err := fn(ctx, item)
		if err == nil {
			res.Status = StatusSucceeded
			res.Err = nil
			op.Logger.Debug().Str("item", item).Int("attempts", res.Attempts).Msg("succeeded")
			return res
		}

		res.Err = err
		res.Status = StatusFatal
		if op.Retryable != nil && op.Retryable(err) {
			res.Status = StatusRetryable
		}

		if res.Status != StatusRetryable || res.Attempts > op.Retries {
			op.Logger.Debug().Err(err).Str("item", item).
				Str("status", string(res.Status)).Int("attempts", res.Attempts).Msg("failed")
			return res
		}

		op.Logger.Warn().Err(err).Str("item", item).Int("attempt", res.Attempts).Msg("retrying")
		if !sleep(ctx, op.Backoff*time.Duration(res.Attempts)) {
			return res
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// ExitCode returns the appropriate exit code for the result
func (r *Result) ExitCode() int {
	if r.Failed == 0 && r.Skipped == 0 {
		return 0 // All succeeded
	}
	if r.Succeeded > 0 {
		return 5 // Partial success
	}
	return 1 // All failed
}

// PrintSummary prints a human-readable summary of the result
func (r *Result) PrintSummary(w io.Writer) {
	if r.TotalItems == 0 {
		fmt.Fprintf(w, "\nNothing to update\n")
		return
	}

	if r.Failed == 0 && r.Succeeded == r.TotalItems {
		fmt.Fprintf(w, "\n✓ All %d updates succeeded\n", r.TotalItems)
	} else if r.Succeeded == 0 && r.Skipped == 0 {
		fmt.Fprintf(w, "\n✗ All %d updates failed\n", r.Failed)
	} else if r.Succeeded == 0 {
		fmt.Fprintf(w, "\n✗ No updates succeeded: %d failed, %d not sent\n", r.Failed, r.Skipped)
	} else {
		fmt.Fprintf(w, "\n⚠ Partial success: %d succeeded, %d failed, %d not sent (out of %d)\n",
			r.Succeeded, r.Failed, r.Skipped, r.TotalItems)
	}

	if len(r.Errors) > 0 && len(r.Errors) <= 10 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s: %v\n", e.Item, e.Error)
		}
	} else if len(r.Errors) > 10 {
		fmt.Fprintf(w, "\nShowing first 10 errors (of %d):\n", len(r.Errors))
		for _, e := range r.Errors[:10] {
			fmt.Fprintf(w, "  %s: %v\n", e.Item, e.Error)
		}
	}
}
