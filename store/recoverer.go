package store

import "context"

// Recoverer performs crash-recovery bookkeeping at startup.
type Recoverer interface {
	// RequeueInterrupted scans for jobs in status job.JobRunning and
	// resets them to job.JobQueued. Any item of such a job left in
	// job.ItemRunning is additionally reset to job.ItemPending — an
	// explicit strengthening over leaving the item's status untouched, so
	// that the next execution observes a clean Pending -> Running
	// transition instead of an anomalous already-Running item.
	//
	// RequeueInterrupted returns the number of jobs requeued.
	RequeueInterrupted(ctx context.Context) (int, error)
}
