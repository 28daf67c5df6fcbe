// Package retention provides background pruning of terminal jobs.
//
// A job reaches a terminal status (job.JobCompleted,
// job.JobCompletedWithErrors or job.JobCancelled) and then simply
// accumulates in the store unless something removes it. Worker performs
// that removal on a schedule through a Cleaner implementation, mirroring
// how the executor loop drives jobs forward: a single background
// component with the same start/stop lifecycle discipline.
package retention
