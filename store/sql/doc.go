// Package sql provides a bun-based SQL implementation of store.Store.
//
// # Overview
//
// The backend persists jobs in a single "jobs" table (see jobModel) and
// implements every store.Store sub-interface against it:
//
//   - store.Enqueuer  — insert, assign a seq slot, trigger a reorder pass
//   - store.Claimer   — peek/claim the head of the Queued sub-sequence
//   - store.Mutator   — item/job lifecycle transitions
//   - store.Observer  — read-only snapshots
//   - store.Recoverer — startup crash-recovery sweep
//
// It is compatible with SQLite, PostgreSQL and other bun-supported
// dialects, subject to their transactional guarantees; it is exercised in
// this repository against modernc.org/sqlite.
//
// # Locking
//
// Store serializes all mutating operations behind a single in-process
// mutex, independent of any lock held by package eta. This mirrors the
// "two separate coarse locks, never held across each other" discipline
// used elsewhere in this module: the store lock guards row state and the
// seq ordering invariant, the eta lock (held only inside eta.Estimator)
// guards ETA statistics, and neither is held while calling into the other.
//
// # Seq and ordering
//
// Every row carries a seq value assigned once at insert time. Seq values
// of job.JobQueued rows are the only ones ever rewritten, and only as a
// set: a reorder pass reassigns the same pool of seq values used by the
// rows it reorders, in their new order. Rows that are not job.JobQueued
// never have their seq rewritten. ORDER BY seq therefore reproduces the
// physical list ordering describing in store.Observer.List: non-queued
// jobs never move, and queued jobs reflect the scheduler's sort key.
package sql
