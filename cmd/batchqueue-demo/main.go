// Command batchqueue-demo wires a toy file-tagging handler and a
// stdout event sink onto an in-memory store, to exercise the queue
// end-to-end. It is intentionally minimal: CLI ergonomics, flags and
// packaging are out of scope.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"

	"github.com/castform/batchqueue/eta"
	"github.com/castform/batchqueue/executor"
	"github.com/castform/batchqueue/job"
	"github.com/castform/batchqueue/retention"
	gsql "github.com/castform/batchqueue/store/sql"
)

type fileHandler struct{}

func (fileHandler) Process(_ context.Context, payload json.RawMessage, resourceKey, operation string) (string, error) {
	var path string
	if err := json.Unmarshal(payload, &path); err != nil {
		return "", err
	}
	fmt.Printf("[%s] %s file: %s\n", resourceKey, operation, path)
	time.Sleep(100 * time.Millisecond)
	return fmt.Sprintf("processed %s with %s", path, resourceKey), nil
}

func (fileHandler) ShouldSkip(json.RawMessage, string) bool {
	return false
}

type stdoutSink struct{}

func (stdoutSink) JobStarted(e executor.JobStartedEvent) {
	fmt.Printf("job started: %s (%d items)\n", e.JobID, e.TotalItems)
}

func (stdoutSink) ItemProgress(e executor.ItemProgressEvent) {
	fmt.Printf("item progress: %s %d/%d status=%s\n", e.ItemID, e.Completed, e.Total, e.Status)
}

func (stdoutSink) JobCompleted(e executor.JobCompletedEvent) {
	fmt.Printf("job completed: %s succeeded=%d failed=%d\n", e.Summary.JobID, e.Summary.Succeeded, e.Summary.Failed)
}

func mustItem(id, path string, bucket job.SizeBucket) job.Item {
	data, err := json.Marshal(path)
	if err != nil {
		panic(err)
	}
	return job.Item{ID: id, Data: data, Status: job.ItemPending, SizeBucket: bucket}
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		log.Error("open db", "err", err)
		os.Exit(1)
	}
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := gsql.InitDB(ctx, db); err != nil {
		log.Error("init schema", "err", err)
		os.Exit(1)
	}

	estimator := eta.NewEstimator()
	st := gsql.NewStore(db, estimator)

	j := &job.Job{
		ResourceKey:     "llava:13b",
		Operation:       "tag",
		OverwritePolicy: job.Skip,
		Priority:        job.Normal,
		Items: []job.Item{
			mustItem("img-1", "/photos/cat.jpg", job.Medium),
			mustItem("img-2", "/photos/dog.jpg", job.Medium),
			mustItem("img-3", "/photos/sunset.jpg", job.Large),
		},
	}
	id, err := st.Enqueue(ctx, j)
	if err != nil {
		log.Error("enqueue", "err", err)
		os.Exit(1)
	}
	fmt.Printf("queued batch job: %s\n", id)

	if n, err := st.RequeueInterrupted(ctx); err != nil {
		log.Error("requeue interrupted", "err", err)
	} else if n > 0 {
		log.Info("requeued interrupted jobs", "count", n)
	}

	exec := executor.NewExecutor(st, estimator, fileHandler{}, stdoutSink{}, executor.Config{
		PollInterval:   200 * time.Millisecond,
		Cooldown:       0,
		MaxConsecutive: 0,
	}, log)
	if err := exec.Start(ctx); err != nil {
		log.Error("start executor", "err", err)
		os.Exit(1)
	}

	reten := retention.NewWorker(st, retention.Config{
		Interval: time.Minute,
		Status:   job.JobUnknown,
		Before:   true,
		Delta:    24 * time.Hour,
	}, log)
	if err := reten.Start(ctx); err != nil {
		log.Error("start retention worker", "err", err)
		os.Exit(1)
	}

	<-ctx.Done()
	fmt.Println("shutting down")
	_ = exec.Stop(5 * time.Second)
	_ = reten.Stop(5 * time.Second)
}
