package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/castform/batchqueue/job"
)

// Enqueuer is the write-side entry point of the job store.
type Enqueuer interface {
	// Enqueue persists a job with status job.JobQueued, assigning an id if
	// job.ID is the zero uuid.UUID, and stamping CreatedAt.
	//
	// After persistence, Enqueue triggers a resource-grouping reorder pass
	// (package scheduler) over the Queued sub-sequence.
	//
	// Enqueue returns ErrDuplicateID if job.ID was supplied and already
	// exists.
	Enqueue(ctx context.Context, j *job.Job) (uuid.UUID, error)
}
