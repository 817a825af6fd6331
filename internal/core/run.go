package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/snepalysis/internal/logging"
	"github.com/google/uuid"
)

// RunOptions selects what one synchronization run does.
type RunOptions struct {
	Scope Scope
	// Force runs ingestion and sync even when the mirror did not change.
	Force bool
	// Offline skips the update check and uses whatever is already on disk.
	// Without Force an offline run has nothing to do.
	Offline bool
	Ingest  IngestOptions
}

// RunResult summarizes a run.
type RunResult struct {
	ID         string
	Changed    bool
	Skipped    bool // true when the run stopped before ingestion
	Stats      Stats
	Candidates int
	Inserted   int
	Duration   time.Duration
}

// Runner sequences mirror refresh, ingestion and synchronization.
type Runner struct {
	mirror  Mirror
	store   Store
	layouts []Layout
}

// NewRunner creates a Runner over the given collaborators. layouts are the
// known header layouts, in priority order.
func NewRunner(mirror Mirror, store Store, layouts []Layout) *Runner {
	return &Runner{mirror: mirror, store: store, layouts: layouts}
}

// Run executes one run:
//
//	ensure cloned -> pull (unless offline) -> changed or forced? -> ingest -> sync
//
// If nothing changed and no run was forced, Run returns after the update check
// with Skipped set and touches neither the dataset files nor storage.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	start := time.Now()
	res := &RunResult{ID: uuid.New().String()}
	ctx = logging.ContextWithFields(ctx, "run_id", res.ID)
	logger := logging.FromContext(ctx)

	if err := r.mirror.EnsureCloned(ctx); err != nil {
		return nil, fmt.Errorf("ensure dataset cloned: %w", err)
	}

	if !opts.Offline {
		logger.Info("checking for dataset updates")
		changed, err := r.mirror.Pull(ctx)
		if err != nil {
			return nil, fmt.Errorf("pull dataset: %w", err)
		}
		res.Changed = changed
	}

	if !res.Changed && !opts.Force {
		logger.Info("not updating database, dataset unchanged")
		res.Skipped = true
		res.Duration = time.Since(start)
		return res, nil
	}

	reg, err := NewRegistry(opts.Scope, r.layouts...)
	if err != nil {
		return nil, fmt.Errorf("build header registry: %w", err)
	}

	candidates, stats, err := Ingest(ctx, r.mirror.DataPath(), reg, opts.Ingest)
	if err != nil {
		return nil, err
	}
	res.Stats = stats
	res.Candidates = candidates.Len()

	logger.Info("matched records",
		"matched", stats.RowsMatched,
		"rows", stats.RowsRead,
		"rejected", stats.RowsRejected,
		"skipped_files", stats.FilesSkipped,
	)

	inserted, err := NewSynchronizer(r.store).Sync(ctx, candidates, opts.Scope)
	if err != nil {
		return nil, err
	}
	res.Inserted = inserted
	res.Duration = time.Since(start)

	return res, nil
}
