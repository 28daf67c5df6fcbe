package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/castform/batchqueue/job"
)

// Mutator performs the item- and job-level lifecycle transitions driven by
// the executor loop and by administrative callers.
type Mutator interface {
	// UpdateItem atomically updates a single item's status, error and
	// duration. If the new status is job.ItemCompleted with a non-nil
	// durationMs, the update additionally records a sample into the
	// eta.Estimator supplied at construction time, after releasing the
	// store's internal lock (see the package-level locking discipline).
	//
	// UpdateItem returns ErrNotFound if the job or item does not exist.
	UpdateItem(ctx context.Context, jobID uuid.UUID, itemID string, status job.ItemStatus, errMsg *string, durationMs *uint64) error

	// MarkCompleted derives the job's final status from its item statuses
	// (any job.ItemCancelled item yields job.JobCancelled; otherwise any
	// job.ItemFailed item yields job.JobCompletedWithErrors; otherwise
	// job.JobCompleted), sets CompletedAt, and returns the resulting
	// completion summary.
	//
	// MarkCompleted returns ErrNotFound if the job does not exist.
	MarkCompleted(ctx context.Context, jobID uuid.UUID) (*job.CompletionSummary, error)

	// CancelItem transitions a job.ItemPending item to job.ItemCancelled.
	// It is a no-op for any other current item status.
	//
	// CancelItem returns ErrNotFound if the job or item does not exist.
	CancelItem(ctx context.Context, jobID uuid.UUID, itemID string) error

	// CancelJob transitions every job.ItemPending item to
	// job.ItemCancelled. If no item is job.ItemRunning, the job itself
	// transitions to job.JobCancelled with CompletedAt set; otherwise the
	// job remains job.JobRunning until the executor observes the
	// cancellation between items and the next MarkCompleted call settles
	// its final status.
	//
	// CancelJob returns ErrNotFound if the job does not exist.
	CancelJob(ctx context.Context, jobID uuid.UUID) error

	// RetryFailed resets every job.ItemFailed item to job.ItemPending
	// (clearing its error and duration), sets the job's status back to
	// job.JobQueued and CompletedAt to nil, then triggers a
	// resource-grouping reorder pass.
	//
	// RetryFailed returns ErrNotFound if the job does not exist, and
	// ErrNoFailedItems if the job has no item.ItemFailed items.
	RetryFailed(ctx context.Context, jobID uuid.UUID) error
}
