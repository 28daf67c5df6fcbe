package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/castform/batchqueue/eta"
	"github.com/castform/batchqueue/job"
	"github.com/castform/batchqueue/scheduler"
	"github.com/castform/batchqueue/store"
)

// Store implements store.Store using a single bun-backed "jobs" table.
//
// Store is safe for concurrent use. All mutating operations serialize on an
// internal mutex; the mutex is never held while calling into the eta
// estimator, and the estimator's own lock is never held while calling back
// into Store.
type Store struct {
	mu  sync.Mutex
	db  *bun.DB
	eta *eta.Estimator

	// reorderNote overrides the default text stamped on jobs by a reorder
	// pass (config.Config's lock_note_template). Empty means use the
	// scheduler package's default.
	reorderNote string
}

// NewStore creates a SQL-backed store.Store.
//
// estimator may be nil, in which case UpdateItem skips ETA sample
// recording. The provided *bun.DB must be configured and schema-initialized
// via InitDB before use.
func NewStore(db *bun.DB, estimator *eta.Estimator) *Store {
	return &Store{db: db, eta: estimator}
}

// WithReorderNote overrides the note text stamped on jobs by a reorder
// pass and returns the same Store for chaining.
func (s *Store) WithReorderNote(note string) *Store {
	s.reorderNote = note
	return s
}

func (s *Store) nextSeq(ctx context.Context, tx bun.Tx) (int64, error) {
	var max sql.NullInt64
	err := tx.NewSelect().
		Model((*jobModel)(nil)).
		ColumnExpr("MAX(seq)").
		Scan(ctx, &max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64 + 1, nil
}

// reorderLocked reruns the resource-grouping reorder pass over the current
// Queued sub-sequence and persists any resulting seq/Reordered/ReorderNote
// changes. Callers must hold s.mu and be inside tx.
func (s *Store) reorderLocked(ctx context.Context, tx bun.Tx) error {
	var rows []jobModel
	err := tx.NewSelect().
		Model(&rows).
		Where("status = ?", job.JobQueued).
		Order("seq ASC").
		Scan(ctx)
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		return nil
	}
	seqs := make([]int64, len(rows))
	queued := make([]*job.Job, len(rows))
	for i := range rows {
		seqs[i] = rows[i].Seq
		j, err := rows[i].toJob()
		if err != nil {
			return err
		}
		queued[i] = j
	}
	if !scheduler.ReorderWithNote(queued, s.reorderNote) {
		return nil
	}
	for i, j := range queued {
		_, err := tx.NewUpdate().
			Model((*jobModel)(nil)).
			Set("seq = ?", seqs[i]).
			Set("reordered = ?", j.Reordered).
			Set("reorder_note = ?", j.ReorderNote).
			Where("id = ?", j.ID).
			Exec(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

// Enqueue implements store.Enqueuer.
func (s *Store) Enqueue(ctx context.Context, j *job.Job) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return uuid.Nil, err
		}
		j.ID = id
	}
	j.CreatedAt = time.Now()
	j.Status = job.JobQueued

	var id uuid.UUID
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var existing int
		count, err := tx.NewSelect().Model((*jobModel)(nil)).Where("id = ?", j.ID).Count(ctx)
		if err != nil {
			return err
		}
		existing = count
		if existing > 0 {
			return store.ErrDuplicateID
		}
		seq, err := s.nextSeq(ctx, tx)
		if err != nil {
			return err
		}
		model, err := fromJob(j, seq)
		if err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(model).Exec(ctx); err != nil {
			return err
		}
		if err := s.reorderLocked(ctx, tx); err != nil {
			return err
		}
		id = j.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// PeekNext implements store.Claimer.
func (s *Store) PeekNext(ctx context.Context) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var row jobModel
	err := s.db.NewSelect().
		Model(&row).
		Where("status = ?", job.JobQueued).
		Order("seq ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.toJob()
}

// MarkRunning implements store.Claimer.
func (s *Store) MarkRunning(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	res, err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", job.JobRunning).
		Set("started_at = ?", now).
		Where("id = ?", id).
		Where("status = ?", job.JobQueued).
		Exec(ctx)
	if err != nil {
		return err
	}
	if !isAffected(res) {
		exists, err := s.db.NewSelect().Model((*jobModel)(nil)).Where("id = ?", id).Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return store.ErrNotFound
		}
	}
	return nil
}

// UpdateItem implements store.Mutator.
func (s *Store) UpdateItem(ctx context.Context, jobID uuid.UUID, itemID string, status job.ItemStatus, errMsg *string, durationMs *uint64) error {
	s.mu.Lock()

	var row jobModel
	err := s.db.NewSelect().Model(&row).Where("id = ?", jobID).Scan(ctx)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}
	j, err := row.toJob()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	item := j.ItemByID(itemID)
	if item == nil {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	item.Status = status
	item.Error = errMsg
	item.DurationMs = durationMs

	model, err := fromJob(j, row.Seq)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	_, err = s.db.NewUpdate().
		Model(model).
		Column("items").
		Where("id = ?", jobID).
		Exec(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if s.eta != nil && status == job.ItemCompleted && durationMs != nil {
		s.eta.Record(j.ResourceKey, j.Operation, item.SizeBucket, *durationMs)
	}
	return nil
}

// MarkCompleted implements store.Mutator.
func (s *Store) MarkCompleted(ctx context.Context, jobID uuid.UUID) (*job.CompletionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var row jobModel
	err := s.db.NewSelect().Model(&row).Where("id = ?", jobID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	j, err := row.toJob()
	if err != nil {
		return nil, err
	}

	summary := &job.CompletionSummary{
		JobID:       j.ID,
		Operation:   j.Operation,
		ResourceKey: j.ResourceKey,
		Total:       len(j.Items),
	}
	hasFailure := false
	hasCancelled := false
	for _, it := range j.Items {
		switch it.Status {
		case job.ItemCompleted:
			summary.Succeeded++
		case job.ItemFailed:
			summary.Failed++
			hasFailure = true
		case job.ItemSkipped:
			summary.SkippedOrCancel++
		case job.ItemCancelled:
			summary.SkippedOrCancel++
			hasCancelled = true
		}
		if it.DurationMs != nil {
			summary.TotalDurationMs += *it.DurationMs
		}
	}
	if summary.Succeeded+summary.Failed > 0 {
		summary.AvgDurationMs = summary.TotalDurationMs / uint64(summary.Succeeded+summary.Failed)
	}

	now := time.Now()
	j.CompletedAt = &now
	switch {
	case hasCancelled:
		// A cancel_job call already reclassified every Pending item as
		// Cancelled; the job converges here once its in-flight item (if
		// any) finishes, regardless of that item's own outcome.
		j.Status = job.JobCancelled
	case hasFailure:
		j.Status = job.JobCompletedWithErrors
	default:
		j.Status = job.JobCompleted
	}

	model, err := fromJob(j, row.Seq)
	if err != nil {
		return nil, err
	}
	_, err = s.db.NewUpdate().
		Model(model).
		Column("status", "completed_at").
		Where("id = ?", jobID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// CancelItem implements store.Mutator.
func (s *Store) CancelItem(ctx context.Context, jobID uuid.UUID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelItemLocked(ctx, jobID, itemID)
}

func (s *Store) cancelItemLocked(ctx context.Context, jobID uuid.UUID, itemID string) error {
	var row jobModel
	err := s.db.NewSelect().Model(&row).Where("id = ?", jobID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}
	j, err := row.toJob()
	if err != nil {
		return err
	}
	item := j.ItemByID(itemID)
	if item == nil {
		return store.ErrNotFound
	}
	if item.Status != job.ItemPending {
		return nil
	}
	item.Status = job.ItemCancelled

	model, err := fromJob(j, row.Seq)
	if err != nil {
		return err
	}
	_, err = s.db.NewUpdate().
		Model(model).
		Column("items").
		Where("id = ?", jobID).
		Exec(ctx)
	return err
}

// CancelJob implements store.Mutator.
func (s *Store) CancelJob(ctx context.Context, jobID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var row jobModel
	err := s.db.NewSelect().Model(&row).Where("id = ?", jobID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}
	j, err := row.toJob()
	if err != nil {
		return err
	}
	if j.Status.IsTerminal() {
		return nil
	}

	hasRunning := false
	for i := range j.Items {
		switch j.Items[i].Status {
		case job.ItemPending:
			j.Items[i].Status = job.ItemCancelled
		case job.ItemRunning:
			hasRunning = true
		}
	}

	cols := []string{"items"}
	if !hasRunning {
		now := time.Now()
		j.Status = job.JobCancelled
		j.CompletedAt = &now
		cols = append(cols, "status", "completed_at")
	}

	model, err := fromJob(j, row.Seq)
	if err != nil {
		return err
	}
	_, err = s.db.NewUpdate().
		Model(model).
		Column(cols...).
		Where("id = ?", jobID).
		Exec(ctx)
	return err
}

// RetryFailed implements store.Mutator.
func (s *Store) RetryFailed(ctx context.Context, jobID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var row jobModel
		err := tx.NewSelect().Model(&row).Where("id = ?", jobID).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNotFound
			}
			return err
		}
		j, err := row.toJob()
		if err != nil {
			return err
		}

		retried := 0
		for i := range j.Items {
			if j.Items[i].Status == job.ItemFailed {
				j.Items[i].Status = job.ItemPending
				j.Items[i].Error = nil
				j.Items[i].DurationMs = nil
				retried++
			}
		}
		if retried == 0 {
			return store.ErrNoFailedItems
		}
		j.Status = job.JobQueued
		j.CompletedAt = nil

		model, err := fromJob(j, row.Seq)
		if err != nil {
			return err
		}
		_, err = tx.NewUpdate().
			Model(model).
			Column("items", "status", "completed_at").
			Where("id = ?", jobID).
			Exec(ctx)
		if err != nil {
			return err
		}
		return s.reorderLocked(ctx, tx)
	})
}

// Get implements store.Observer.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var row jobModel
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.toJob()
}

// List implements store.Observer.
func (s *Store) List(ctx context.Context) ([]*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []jobModel
	err := s.db.NewSelect().Model(&rows).Order("seq ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]*job.Job, len(rows))
	for i := range rows {
		j, err := rows[i].toJob()
		if err != nil {
			return nil, err
		}
		ret[i] = j
	}
	return ret, nil
}

// RequeueInterrupted implements store.Recoverer.
func (s *Store) RequeueInterrupted(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var rows []jobModel
		err := tx.NewSelect().Model(&rows).Where("status = ?", job.JobRunning).Scan(ctx)
		if err != nil {
			return err
		}
		for i := range rows {
			j, err := rows[i].toJob()
			if err != nil {
				return err
			}
			for k := range j.Items {
				if j.Items[k].Status == job.ItemRunning {
					j.Items[k].Status = job.ItemPending
				}
			}
			j.Status = job.JobQueued

			model, err := fromJob(j, rows[i].Seq)
			if err != nil {
				return err
			}
			_, err = tx.NewUpdate().
				Model(model).
				Column("items", "status").
				Where("id = ?", j.ID).
				Exec(ctx)
			if err != nil {
				return err
			}
			count++
		}
		if count == 0 {
			return nil
		}
		return s.reorderLocked(ctx, tx)
	})
	if err != nil {
		return 0, fmt.Errorf("requeue interrupted: %w", err)
	}
	return count, nil
}

var _ store.Store = (*Store)(nil)
