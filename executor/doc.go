// Package executor drives queued jobs to completion.
//
// Executor is a single background worker: at any instant it is processing
// at most one item of at most one job. It polls store.Claimer on an
// interval, claims the head of the queue, iterates the job's items in
// order invoking a Handler, records outcomes through store.Mutator, and
// emits lifecycle events through an EventSink.
//
// # Locking discipline
//
// Executor never holds the job store's internal lock across a handler
// invocation: each store call (PeekNext, MarkRunning, UpdateItem,
// MarkCompleted) is a short, independent call. The ETA estimate consulted
// for item-progress events is read directly from the eta.Estimator between
// those store calls, so the store's lock is never held while it is read.
//
// # Cancellation
//
// Cancellation is cooperative: Executor checks item and job status
// between items, not mid-item. An already-running item always completes
// before a job cancellation takes effect.
package executor
