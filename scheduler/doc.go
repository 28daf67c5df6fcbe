// Package scheduler implements the resource-grouping reorder that decides
// which queued job runs next.
//
// The design goal is to minimize resource switches — the cost of unloading
// one model/resource and loading another between jobs — by grouping jobs
// with the same resource key to run back-to-back, subject to priority.
//
// Scheduler is storage-agnostic: it operates over an in-memory snapshot of
// queued jobs handed to it by a store implementation, which is responsible
// for persisting the resulting order and for never including non-queued
// jobs in the snapshot.
package scheduler
