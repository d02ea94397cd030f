// Package reaper removes expired pastes in the background. A record past its
// expiration is already invisible to readers; the reaper's job is only to
// reclaim disk and metadata, eventually.
package reaper

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pavel-fokin/paste-stash/internal/pastes"
)

var (
	runsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastestash_reaper_runs_total",
		Help: "Total number of reaper runs",
	})

	reapedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastestash_reaper_pastes_reaped_total",
		Help: "Total number of expired pastes removed",
	})

	errorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastestash_reaper_errors_total",
		Help: "Total number of per-paste reap failures",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pastestash_reaper_run_duration_seconds",
		Help:    "Duration of reaper runs in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})
)

// Result summarizes one reaper run.
type Result struct {
	// Reaped is the number of records fully removed.
	Reaped int
	// Errors is the number of records whose removal failed; they stay in
	// the store and are retried on the next run.
	Errors int
}

// Reaper periodically purges expired pastes from storage and metadata.
type Reaper struct {
	repo     pastes.Repository
	storage  pastes.Storage
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a reaper. Start must be called to begin ticking.
func New(repo pastes.Repository, storage pastes.Storage, interval time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{
		repo:     repo,
		storage:  storage,
		interval: interval,
		logger:   logger.With("component", "reaper"),
	}
}

// Start launches the background goroutine with a fixed-interval ticker.
func (r *Reaper) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go r.run(ctx)

	r.logger.Info("reaper started", "interval", r.interval)
}

// Stop cancels the ticker loop and waits for it to exit. An in-flight run is
// allowed to finish; anything it missed is picked up after restart.
func (r *Reaper) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.logger.Info("reaper stopped")
}

func (r *Reaper) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(time.Now())
		}
	}
}

// RunOnce performs a single reap pass: every record expired at now has its
// content file deleted, then its metadata row. Records are processed
// independently, so one failure never aborts the scan, and the pass is
// idempotent across runs — a record not fully cleaned up stays expired and is
// picked up again next time.
func (r *Reaper) RunOnce(now time.Time) Result {
	start := time.Now()
	runsTotal.Inc()

	expired, err := r.repo.ListExpired(now)
	if err != nil {
		r.logger.Error("failed to list expired pastes", "error", err)
		return Result{Errors: 1}
	}
	if len(expired) == 0 {
		return Result{}
	}

	var result Result
	for _, p := range expired {
		// The file may already be gone (manual removal, earlier partial
		// reap); storage deletion is idempotent so that is fine.
		if err := r.storage.Delete(p.StoredName); err != nil {
			r.logger.Error("failed to delete content", "paste_id", p.ID, "error", err)
			result.Errors++
			errorsTotal.Inc()
			continue
		}
		if err := r.repo.Delete(p.ID); err != nil {
			r.logger.Error("failed to delete metadata", "paste_id", p.ID, "error", err)
			result.Errors++
			errorsTotal.Inc()
			continue
		}
		result.Reaped++
		reapedTotal.Inc()
	}

	runDuration.Observe(time.Since(start).Seconds())
	r.logger.Info("reap pass completed",
		"expired", len(expired),
		"reaped", result.Reaped,
		"errors", result.Errors,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result
}
