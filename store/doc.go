// Package store defines the durable job store contract: transactional CRUD
// over jobs and items, with the operations used by the scheduler and
// executor loop.
//
// The store is the sole authority over job and item state. The scheduler
// and executor hold only short-lived snapshots obtained through this
// package's interfaces; they never mutate a Job value directly and expect
// every transition to be visible to subsequent reads.
//
// Implementations must be safe against process crash: any job observed in
// job.JobRunning at startup must be demotable back to job.JobQueued
// deterministically by Recoverer.RequeueInterrupted.
package store
