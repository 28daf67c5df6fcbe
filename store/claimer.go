package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/castform/batchqueue/job"
)

// Claimer is the executor-facing read/claim contract that feeds the poll
// loop its next unit of work.
type Claimer interface {
	// PeekNext returns a snapshot of the first job.JobQueued job in
	// scheduler order (package scheduler), or nil if none is queued. It
	// does not mutate store state.
	PeekNext(ctx context.Context) (*job.Job, error)

	// MarkRunning atomically transitions a job to job.JobRunning and sets
	// StartedAt to now. It is a no-op if the job is not currently
	// job.JobQueued; the executor is the only caller and guarantees that
	// precondition by construction.
	//
	// MarkRunning returns ErrNotFound if the job does not exist.
	MarkRunning(ctx context.Context, id uuid.UUID) error
}
