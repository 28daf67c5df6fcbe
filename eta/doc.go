// Package eta provides an online, per-(resource, operation, size-bucket)
// moving-average predictor consulted during execution to report remaining
// time for a running batch job.
//
// Estimator owns only aggregate counters derived from completed items; it
// may be rebuilt from history without correctness loss, and it is globally
// shared across jobs sharing a resource/operation pair. It is guarded by a
// single lock independent of the job store's lock — callers must not hold
// the store's lock while calling into Estimator (see the locking discipline
// documented on Estimator).
package eta
