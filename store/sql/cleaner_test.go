package sql_test

import (
	"context"
	"testing"
	"time"

	"github.com/castform/batchqueue/job"
	gsql "github.com/castform/batchqueue/store/sql"
)

func TestCleanDeletesTerminalJobsOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	s := gsql.NewStore(db, nil)

	queuedID, err := s.Enqueue(ctx, newJob("gpu-1", job.Normal, "a"))
	if err != nil {
		t.Fatal(err)
	}
	doneID, err := s.Enqueue(ctx, newJob("gpu-2", job.Normal, "a"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.MarkRunning(ctx, doneID); err != nil {
		t.Fatal(err)
	}
	dur := uint64(10)
	if err := s.UpdateItem(ctx, doneID, "a", job.ItemCompleted, nil, &dur); err != nil {
		t.Fatal(err)
	}
	if _, err := s.MarkCompleted(ctx, doneID); err != nil {
		t.Fatal(err)
	}

	n, err := s.Clean(ctx, job.JobUnknown, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted job, got %d", n)
	}

	if got, err := s.Get(ctx, doneID); err != nil || got != nil {
		t.Fatalf("expected completed job removed, got %v (err=%v)", got, err)
	}
	if got, err := s.Get(ctx, queuedID); err != nil || got == nil {
		t.Fatalf("expected queued job to survive, got %v (err=%v)", got, err)
	}
}

func TestCleanRespectsBeforeFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	s := gsql.NewStore(db, nil)

	id, err := s.Enqueue(ctx, newJob("gpu-1", job.Normal, "a"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.MarkRunning(ctx, id); err != nil {
		t.Fatal(err)
	}
	dur := uint64(5)
	if err := s.UpdateItem(ctx, id, "a", job.ItemCompleted, nil, &dur); err != nil {
		t.Fatal(err)
	}
	if _, err := s.MarkCompleted(ctx, id); err != nil {
		t.Fatal(err)
	}

	past := time.Now().Add(-time.Hour)
	n, err := s.Clean(ctx, job.JobUnknown, &past)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected 0 deleted (completed_at is after cutoff), got %d", n)
	}
}

func TestCleanRejectsNonTerminalStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	s := gsql.NewStore(db, nil)

	if _, err := s.Clean(ctx, job.JobQueued, nil); err == nil {
		t.Fatal("expected ErrBadStatus for non-terminal status")
	}
}
