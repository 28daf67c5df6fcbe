package sql

import (
	"context"
	"time"

	"github.com/castform/batchqueue/job"
	"github.com/castform/batchqueue/retention"
)

// Clean implements retention.Cleaner.
func (s *Store) Clean(ctx context.Context, status job.JobStatus, before *time.Time) (int64, error) {
	if status != job.JobUnknown && !status.IsTerminal() {
		return 0, retention.ErrBadStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.db.NewDelete().Model((*jobModel)(nil))
	if status == job.JobUnknown {
		query.Where("status IN (?, ?, ?)", job.JobCompleted, job.JobCompletedWithErrors, job.JobCancelled)
	} else {
		query.Where("status = ?", status)
	}
	if before != nil {
		query.Where("completed_at <= ?", before)
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return -1, nil
	}
	return n, nil
}

var _ retention.Cleaner = (*Store)(nil)
