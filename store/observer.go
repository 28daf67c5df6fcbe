package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/castform/batchqueue/job"
)

// Observer provides read-only access to jobs stored in the queue. It does
// not modify job state and is intended for diagnostic, monitoring and
// administrative use.
//
// Returned Job values are snapshots of authoritative storage state at the
// time of the call; mutating them does not affect the underlying queue.
type Observer interface {
	// Get returns the job identified by id, or (nil, nil) if no such job
	// exists.
	Get(ctx context.Context, id uuid.UUID) (*job.Job, error)

	// List returns every job known to the store, in the order maintained
	// by the scheduler (non-queued jobs keep their relative position;
	// queued jobs are ordered by the scheduler's sort key).
	List(ctx context.Context) ([]*job.Job, error)
}
