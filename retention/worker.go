package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/castform/batchqueue/internal"
	"github.com/castform/batchqueue/job"
)

// Config defines the scheduling parameters for a Worker.
//
// Interval defines how often the worker runs.
//
// Status restricts cleaning to a single terminal status; job.JobUnknown
// (the zero value) targets every terminal status.
//
// If Before is true, deletion is restricted to jobs whose CompletedAt is
// older than now - Delta. If Before is false, every terminal job is
// eligible regardless of age.
type Config struct {
	Interval time.Duration
	Status   job.JobStatus
	Before   bool
	Delta    time.Duration
}

// Worker periodically invokes a Cleaner according to the provided
// configuration.
//
// Worker has a strict lifecycle: Start may only be called once, and Stop
// must be called to terminate it.
type Worker struct {
	internal.LcBase
	task internal.PollLoop

	cleaner Cleaner
	log     *slog.Logger

	interval time.Duration
	status   job.JobStatus
	before   bool
	delta    time.Duration
}

// NewWorker creates a Worker using the provided Cleaner and Config. The
// worker is not started automatically.
func NewWorker(cleaner Cleaner, cfg Config, log *slog.Logger) *Worker {
	return &Worker{
		cleaner:  cleaner,
		log:      log,
		interval: cfg.Interval,
		status:   cfg.Status,
		before:   cfg.Before,
		delta:    cfg.Delta,
	}
}

func (w *Worker) beforeStamp() *time.Time {
	if !w.before {
		return nil
	}
	ret := time.Now()
	if w.delta != 0 {
		ret = ret.Add(-w.delta)
	}
	return &ret
}

func (w *Worker) clean(ctx context.Context) {
	before := w.beforeStamp()
	count, err := w.cleaner.Clean(ctx, w.status, before)
	if err != nil {
		w.log.Error("error while cleaning terminal jobs", "err", err)
		return
	}
	w.log.Info("pruned terminal jobs", "count", count)
}

// Start begins periodic execution of the cleaning task. Start returns
// internal.ErrDoubleStarted if the worker has already been started.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.TryStart(); err != nil {
		return err
	}
	w.task.Start(ctx, w.clean, w.interval)
	return nil
}

// Stop terminates the background cleaning task, waiting up to timeout for
// the current run to finish.
func (w *Worker) Stop(timeout time.Duration) error {
	return w.TryStop(timeout, w.task.Stop)
}
