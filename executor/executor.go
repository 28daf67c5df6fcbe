package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/castform/batchqueue/eta"
	"github.com/castform/batchqueue/internal"
	"github.com/castform/batchqueue/job"
	"github.com/castform/batchqueue/store"
)

const skippedReason = "Skipped: already has data"

// Config controls the executor's polling and pacing behavior.
type Config struct {
	// PollInterval is the suspend duration between scheduler polls.
	// Zero means the default of 2 seconds.
	PollInterval time.Duration
	// Cooldown is the extra suspend inserted after every MaxConsecutive
	// items processed within a single job.
	Cooldown time.Duration
	// MaxConsecutive is the number of items processed before Cooldown is
	// applied. Zero means unlimited (cooldown never triggers).
	MaxConsecutive int
}

func (c Config) pollInterval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return 2 * time.Second
}

// Executor is the single background worker that drives queued jobs to
// completion. See the package doc for its locking and cancellation
// discipline.
//
// Polling and processing are decoupled exactly as in the teacher's
// Worker: a PollLoop periodically peeks the next queued job and pushes
// it into a Dispatcher, which hands it to a single worker goroutine so
// that at most one job is ever processed at a time.
type Executor struct {
	internal.LcBase
	pollTask   internal.PollLoop
	dispatcher *internal.Dispatcher[*job.Job]

	store   store.Store
	eta     *eta.Estimator
	handler Handler
	sink    EventSink
	log     *slog.Logger

	cfg Config
}

// NewExecutor constructs an Executor. estimator should be the same
// *eta.Estimator instance passed to the store implementation, so that
// remaining-time estimates reflect samples recorded by UpdateItem.
func NewExecutor(st store.Store, estimator *eta.Estimator, handler Handler, sink EventSink, cfg Config, log *slog.Logger) *Executor {
	return &Executor{
		dispatcher: internal.NewDispatcher[*job.Job](log),
		store:      st,
		eta:        estimator,
		handler:    handler,
		sink:       sink,
		log:        log,
		cfg:        cfg,
	}
}

// Start begins the poll loop. Start returns internal.ErrDoubleStarted if
// the executor is already running.
func (e *Executor) Start(ctx context.Context) error {
	if err := e.TryStart(); err != nil {
		return err
	}
	e.dispatcher.Start(ctx, e.processJob)
	e.pollTask.Start(ctx, e.poll, e.cfg.pollInterval())
	return nil
}

// Stop initiates graceful shutdown, waiting up to timeout for the current
// tick (and any in-flight job) to finish.
func (e *Executor) Stop(timeout time.Duration) error {
	return e.TryStop(timeout, e.doStop)
}

func (e *Executor) doStop() internal.DoneChan {
	first := e.pollTask.Stop()
	second := e.dispatcher.Stop()
	return internal.Combine(first, second)
}

func (e *Executor) anyJobRunning(ctx context.Context) bool {
	jobs, err := e.store.List(ctx)
	if err != nil {
		e.log.Error("list failed during safety check", "err", err)
		return false
	}
	for _, j := range jobs {
		if j.Status == job.JobRunning {
			return true
		}
	}
	return false
}

func (e *Executor) poll(ctx context.Context) {
	if e.anyJobRunning(ctx) {
		return
	}
	j, err := e.store.PeekNext(ctx)
	if err != nil {
		e.log.Error("peek next failed", "err", err)
		return
	}
	if j == nil {
		return
	}
	if !e.dispatcher.Push(j) {
		e.log.Debug("job push interrupted via shutdown", "id", j.ID)
	}
}

func (e *Executor) safeEmit(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("event sink panic recovered", "event", name, "err", r)
		}
	}()
	fn()
}

func (e *Executor) remainingBuckets(current *job.Job, fromIndex int) []job.SizeBucket {
	buckets := make([]job.SizeBucket, 0, len(current.Items)-fromIndex)
	for i := fromIndex; i < len(current.Items); i++ {
		if current.Items[i].Status == job.ItemPending {
			buckets = append(buckets, current.Items[i].SizeBucket)
		}
	}
	return buckets
}

func (e *Executor) processJob(ctx context.Context, j *job.Job) {
	if err := e.store.MarkRunning(ctx, j.ID); err != nil {
		e.log.Error("mark running failed", "id", j.ID, "err", err)
		return
	}
	total := len(j.Items)
	e.safeEmit("job_started", func() {
		e.sink.JobStarted(JobStartedEvent{
			JobID:       j.ID,
			Operation:   j.Operation,
			ResourceKey: j.ResourceKey,
			TotalItems:  total,
		})
	})

	completed := 0
	consecutive := 0
	for idx := range j.Items {
		current, err := e.store.Get(ctx, j.ID)
		if err != nil {
			e.log.Error("get job failed mid-execution", "id", j.ID, "err", err)
			break
		}
		if current == nil || current.Status == job.JobCancelled {
			break
		}
		item := current.ItemByID(j.Items[idx].ID)
		if item == nil {
			continue
		}
		if item.Status == job.ItemCancelled {
			completed++
			continue
		}

		if j.OverwritePolicy == job.Skip && e.handler.ShouldSkip(item.Data, j.Operation) {
			msg := skippedReason
			if err := e.store.UpdateItem(ctx, j.ID, item.ID, job.ItemSkipped, &msg, nil); err != nil {
				e.log.Error("update item failed", "id", j.ID, "item", item.ID, "err", err)
			}
			completed++
			e.emitProgress(current, item.ID, job.ItemSkipped, completed, total, &msg, nil, idx)
			continue
		}

		if err := e.store.UpdateItem(ctx, j.ID, item.ID, job.ItemRunning, nil, nil); err != nil {
			e.log.Error("mark item running failed", "id", j.ID, "item", item.ID, "err", err)
		}

		start := time.Now()
		_, procErr := e.handler.Process(ctx, item.Data, j.ResourceKey, j.Operation)
		duration := uint64(time.Since(start).Milliseconds())

		status := job.ItemCompleted
		var errMsg *string
		if procErr != nil {
			status = job.ItemFailed
			msg := procErr.Error()
			errMsg = &msg
		}
		if err := e.store.UpdateItem(ctx, j.ID, item.ID, status, errMsg, &duration); err != nil {
			e.log.Error("update item failed", "id", j.ID, "item", item.ID, "err", err)
		}
		completed++
		e.emitProgress(current, item.ID, status, completed, total, errMsg, &duration, idx)

		consecutive++
		if e.cfg.MaxConsecutive > 0 && consecutive >= e.cfg.MaxConsecutive {
			e.suspend(ctx, e.cfg.Cooldown)
			consecutive = 0
		}
	}

	summary, err := e.store.MarkCompleted(ctx, j.ID)
	if err != nil {
		e.log.Error("mark completed failed", "id", j.ID, "err", err)
		return
	}
	e.safeEmit("job_completed", func() {
		e.sink.JobCompleted(JobCompletedEvent{Summary: *summary})
	})
}

func (e *Executor) emitProgress(current *job.Job, itemID string, status job.ItemStatus, completed, total int, errMsg *string, durationMs *uint64, idx int) {
	var etaMs *uint64
	if e.eta != nil {
		buckets := e.remainingBuckets(current, idx+1)
		if ms, ok := e.eta.EstimateRemaining(current.ResourceKey, current.Operation, buckets); ok {
			etaMs = &ms
		}
	}
	e.safeEmit("item_progress", func() {
		e.sink.ItemProgress(ItemProgressEvent{
			JobID:          current.ID,
			ItemID:         itemID,
			Status:         status,
			Completed:      completed,
			Total:          total,
			Error:          errMsg,
			DurationMs:     durationMs,
			ETARemainingMs: etaMs,
		})
	})
}

func (e *Executor) suspend(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
