package executor_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/castform/batchqueue/eta"
	"github.com/castform/batchqueue/executor"
	"github.com/castform/batchqueue/job"
	gsql "github.com/castform/batchqueue/store/sql"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	if err := gsql.InitDB(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	return db
}

type stubHandler struct {
	fail map[string]bool
	skip bool
}

func (h *stubHandler) Process(_ context.Context, _ json.RawMessage, _, _ string) (string, error) {
	return "ok", nil
}

func (h *stubHandler) ShouldSkip(_ json.RawMessage, _ string) bool {
	return h.skip
}

type failingHandler struct {
	fail map[string]bool
}

func (h *failingHandler) Process(_ context.Context, payload json.RawMessage, _, _ string) (string, error) {
	var id string
	_ = json.Unmarshal(payload, &id)
	if h.fail[id] {
		return "", errors.New("boom")
	}
	return "ok", nil
}

func (h *failingHandler) ShouldSkip(json.RawMessage, string) bool {
	return false
}

type blockingHandler struct {
	started chan string
	release chan struct{}
}

func (h *blockingHandler) Process(_ context.Context, payload json.RawMessage, _, _ string) (string, error) {
	var id string
	_ = json.Unmarshal(payload, &id)
	h.started <- id
	<-h.release
	return "ok", nil
}

func (h *blockingHandler) ShouldSkip(json.RawMessage, string) bool {
	return false
}

type recordingSink struct {
	mu        sync.Mutex
	started   []executor.JobStartedEvent
	progress  []executor.ItemProgressEvent
	completed []executor.JobCompletedEvent
}

func (s *recordingSink) JobStarted(e executor.JobStartedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = append(s.started, e)
}

func (s *recordingSink) ItemProgress(e executor.ItemProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, e)
}

func (s *recordingSink) JobCompleted(e executor.JobCompletedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, e)
}

func (s *recordingSink) snapshot() (int, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.started), len(s.progress), len(s.completed)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestExecutorProcessesJobToCompletion(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	est := eta.NewEstimator()
	st := gsql.NewStore(db, est)

	items := make([]job.Item, 3)
	for i := range items {
		data, _ := json.Marshal(fmt.Sprintf("item-%d", i))
		items[i] = job.Item{ID: fmt.Sprintf("item-%d", i), Data: data, Status: job.ItemPending}
	}
	j := &job.Job{ResourceKey: "gpu-1", Operation: "tag", OverwritePolicy: job.Overwrite, Priority: job.Normal, Items: items}
	id, err := st.Enqueue(ctx, j)
	if err != nil {
		t.Fatal(err)
	}

	sink := &recordingSink{}
	handler := &stubHandler{}
	exec := executor.NewExecutor(st, est, handler, sink, executor.Config{PollInterval: 5 * time.Millisecond}, testLogger())
	if err := exec.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer exec.Stop(time.Second)

	waitFor(t, time.Second, func() bool {
		_, _, completed := sink.snapshot()
		return completed == 1
	})

	got, err := st.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != job.JobCompleted {
		t.Fatalf("expected JobCompleted, got %v", got.Status)
	}
	started, progress, _ := sink.snapshot()
	if started != 1 {
		t.Fatalf("expected 1 job-started event, got %d", started)
	}
	if progress != 3 {
		t.Fatalf("expected 3 item-progress events, got %d", progress)
	}
}

func TestExecutorRecordsFailedItemAsCompletedWithErrors(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	est := eta.NewEstimator()
	st := gsql.NewStore(db, est)

	data0, _ := json.Marshal("a")
	data1, _ := json.Marshal("b")
	j := &job.Job{
		ResourceKey:     "gpu-1",
		Operation:       "tag",
		OverwritePolicy: job.Overwrite,
		Priority:        job.Normal,
		Items: []job.Item{
			{ID: "a", Data: data0, Status: job.ItemPending},
			{ID: "b", Data: data1, Status: job.ItemPending},
		},
	}
	id, err := st.Enqueue(ctx, j)
	if err != nil {
		t.Fatal(err)
	}

	sink := &recordingSink{}
	handler := &failingHandler{fail: map[string]bool{"b": true}}
	exec := executor.NewExecutor(st, est, handler, sink, executor.Config{PollInterval: 5 * time.Millisecond}, testLogger())
	if err := exec.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer exec.Stop(time.Second)

	waitFor(t, time.Second, func() bool {
		_, _, completed := sink.snapshot()
		return completed == 1
	})

	got, err := st.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != job.JobCompletedWithErrors {
		t.Fatalf("expected JobCompletedWithErrors, got %v", got.Status)
	}
	if got.ItemByID("b").Error == nil || *got.ItemByID("b").Error != "boom" {
		t.Fatalf("expected preserved error message, got %+v", got.ItemByID("b"))
	}
}

func TestExecutorSkipsItemsUnderSkipPolicy(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	est := eta.NewEstimator()
	st := gsql.NewStore(db, est)

	data, _ := json.Marshal("a")
	j := &job.Job{
		ResourceKey:     "gpu-1",
		Operation:       "tag",
		OverwritePolicy: job.Skip,
		Priority:        job.Normal,
		Items:           []job.Item{{ID: "a", Data: data, Status: job.ItemPending}},
	}
	id, err := st.Enqueue(ctx, j)
	if err != nil {
		t.Fatal(err)
	}

	sink := &recordingSink{}
	handler := &stubHandler{skip: true}
	exec := executor.NewExecutor(st, est, handler, sink, executor.Config{PollInterval: 5 * time.Millisecond}, testLogger())
	if err := exec.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer exec.Stop(time.Second)

	waitFor(t, time.Second, func() bool {
		_, _, completed := sink.snapshot()
		return completed == 1
	})

	got, err := st.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.ItemByID("a").Status != job.ItemSkipped {
		t.Fatalf("expected ItemSkipped, got %v", got.ItemByID("a").Status)
	}
	if got.Status != job.JobCompleted {
		t.Fatalf("expected JobCompleted, got %v", got.Status)
	}
}

func TestExecutorConvergesToCancelledAfterRunningItemFinishes(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	est := eta.NewEstimator()
	st := gsql.NewStore(db, est)

	dataA, _ := json.Marshal("a")
	dataB, _ := json.Marshal("b")
	dataC, _ := json.Marshal("c")
	j := &job.Job{
		ResourceKey:     "gpu-1",
		Operation:       "tag",
		OverwritePolicy: job.Overwrite,
		Priority:        job.Normal,
		Items: []job.Item{
			{ID: "a", Data: dataA, Status: job.ItemPending},
			{ID: "b", Data: dataB, Status: job.ItemPending},
			{ID: "c", Data: dataC, Status: job.ItemPending},
		},
	}
	id, err := st.Enqueue(ctx, j)
	if err != nil {
		t.Fatal(err)
	}

	sink := &recordingSink{}
	handler := &blockingHandler{started: make(chan string, 1), release: make(chan struct{})}
	exec := executor.NewExecutor(st, est, handler, sink, executor.Config{PollInterval: 5 * time.Millisecond}, testLogger())
	if err := exec.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer exec.Stop(time.Second)

	select {
	case got := <-handler.started:
		if got != "a" {
			t.Fatalf("expected item a to start first, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("item a did not start in time")
	}

	if err := st.CancelJob(ctx, id); err != nil {
		t.Fatal(err)
	}
	mid, err := st.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if mid.Status != job.JobRunning {
		t.Fatalf("expected job to stay Running while item a is in flight, got %v", mid.Status)
	}
	if mid.ItemByID("b").Status != job.ItemCancelled || mid.ItemByID("c").Status != job.ItemCancelled {
		t.Fatalf("expected pending items cancelled immediately, got %+v", mid.Items)
	}

	close(handler.release)

	waitFor(t, time.Second, func() bool {
		_, _, completed := sink.snapshot()
		return completed == 1
	})

	got, err := st.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != job.JobCancelled {
		t.Fatalf("expected job to converge to JobCancelled, got %v", got.Status)
	}
	if got.ItemByID("a").Status != job.ItemCompleted {
		t.Fatalf("expected item a to finish its in-flight run, got %v", got.ItemByID("a").Status)
	}
}

func TestExecutorDoubleStartFails(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := gsql.NewStore(db, nil)
	exec := executor.NewExecutor(st, nil, &stubHandler{}, &recordingSink{}, executor.Config{}, testLogger())
	if err := exec.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer exec.Stop(time.Second)
	if err := exec.Start(ctx); err == nil {
		t.Fatal("expected error on double start")
	}
}
