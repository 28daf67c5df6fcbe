package retention

import (
	"context"
	"errors"
	"time"

	"github.com/castform/batchqueue/job"
)

// ErrBadStatus indicates that a non-terminal status was supplied to
// Cleaner.Clean.
var ErrBadStatus = errors.New("retention: bad job status")

// Cleaner permanently removes terminal jobs from storage.
//
// Cleaner is intended for administrative and retention-management use.
// It must not delete a job that has not reached a terminal status
// (job.JobCompleted, job.JobCompletedWithErrors or job.JobCancelled).
type Cleaner interface {
	// Clean deletes jobs in the given terminal status whose CompletedAt
	// is at or before before. job.JobUnknown (the zero value) means "any
	// terminal status". A non-terminal status (job.JobQueued,
	// job.JobRunning) returns ErrBadStatus and deletes nothing.
	//
	// If before is nil, no time-based filtering is applied.
	//
	// Clean returns the number of deleted jobs.
	Clean(ctx context.Context, status job.JobStatus, before *time.Time) (int64, error)
}
