package executor

import (
	"github.com/google/uuid"

	"github.com/castform/batchqueue/job"
)

// JobStartedEvent is emitted exactly once per job execution, before its
// first item is processed.
type JobStartedEvent struct {
	JobID       uuid.UUID `json:"jobId"`
	Operation   string    `json:"operation"`
	ResourceKey string    `json:"resourceKey"`
	TotalItems  int       `json:"totalItems"`
}

// ItemProgressEvent is emitted once per processed item, in the job's item
// order.
type ItemProgressEvent struct {
	JobID          uuid.UUID      `json:"jobId"`
	ItemID         string         `json:"itemId"`
	Status         job.ItemStatus `json:"status"`
	Completed      int            `json:"completed"`
	Total          int            `json:"total"`
	Error          *string        `json:"error,omitempty"`
	DurationMs     *uint64        `json:"durationMs,omitempty"`
	ETARemainingMs *uint64        `json:"etaRemainingMs,omitempty"`
}

// JobCompletedEvent is emitted exactly once per job execution, after its
// final item (or an observed cancellation) settles the job's terminal
// status.
type JobCompletedEvent struct {
	Summary job.CompletionSummary `json:"summary"`
}

// EventSink is a fire-and-forget callback. A panic raised by a sink method
// is recovered and logged by the executor; a sink that blocks indefinitely
// stalls the executor, so implementations should not perform slow or
// blocking I/O directly.
type EventSink interface {
	JobStarted(JobStartedEvent)
	ItemProgress(ItemProgressEvent)
	JobCompleted(JobCompletedEvent)
}
