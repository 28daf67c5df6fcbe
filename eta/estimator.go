package eta

import (
	"sync"

	"github.com/castform/batchqueue/job"
)

// Key identifies an accumulator: a (resource key, operation, size bucket)
// triple.
type Key struct {
	ResourceKey string
	Operation   string
	SizeBucket  job.SizeBucket
}

type stats struct {
	totalMs uint64
	count   uint64
}

func (s stats) avgMs() uint64 {
	if s.count == 0 {
		return 0
	}
	return s.totalMs / s.count
}

// Estimator tracks processing durations bucketed by (resource, operation,
// size) to provide increasingly accurate ETA estimates.
//
// Estimator is globally shared; all mutating and reading operations are
// serialized on a single lock. Contention is expected to be low — one
// Record call per completed item. Callers must not hold the job store's
// lock while calling into Estimator; release the store lock between the
// item update and the ETA record, matching the two-coarse-locks discipline
// used throughout this module.
type Estimator struct {
	mu   sync.Mutex
	data map[Key]stats
}

// NewEstimator creates an empty Estimator.
func NewEstimator() *Estimator {
	return &Estimator{
		data: make(map[Key]stats),
	}
}

// Record accumulates a completed item's duration for future ETA estimates.
// It is called only for items that completed successfully with a measured
// duration.
func (e *Estimator) Record(resourceKey, operation string, bucket job.SizeBucket, durationMs uint64) {
	key := Key{ResourceKey: resourceKey, Operation: operation, SizeBucket: bucket}
	e.mu.Lock()
	defer e.mu.Unlock()
	entry := e.data[key]
	entry.totalMs += durationMs
	entry.count++
	e.data[key] = entry
}

// EstimateOne returns the average duration for the exact (resource,
// operation, bucket) key. If no data exists for that key, it falls back to
// the same (resource, operation) pair with bucket job.SizeUnknown. If that
// is also absent, it returns (0, false).
func (e *Estimator) EstimateOne(resourceKey, operation string, bucket job.SizeBucket) (uint64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.data[Key{ResourceKey: resourceKey, Operation: operation, SizeBucket: bucket}]; ok {
		return s.avgMs(), true
	}
	if bucket == job.SizeUnknown {
		return 0, false
	}
	if s, ok := e.data[Key{ResourceKey: resourceKey, Operation: operation, SizeBucket: job.SizeUnknown}]; ok {
		return s.avgMs(), true
	}
	return 0, false
}

// EstimateRemaining sums per-bucket averages (with the same Unknown
// fallback as EstimateOne) over the given remaining buckets. If no bucket
// in the list has any data, it returns (0, false). Buckets without any
// data (including via the fallback) contribute nothing to the sum, rather
// than causing the whole estimate to fail. An empty bucket list yields
// (0, true) — all items already done is a valid zero estimate.
func (e *Estimator) EstimateRemaining(resourceKey, operation string, buckets []job.SizeBucket) (uint64, bool) {
	if len(buckets) == 0 {
		return 0, true
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var total uint64
	hasData := false
	for _, bucket := range buckets {
		if s, ok := e.data[Key{ResourceKey: resourceKey, Operation: operation, SizeBucket: bucket}]; ok {
			total += s.avgMs()
			hasData = true
			continue
		}
		if s, ok := e.data[Key{ResourceKey: resourceKey, Operation: operation, SizeBucket: job.SizeUnknown}]; ok {
			total += s.avgMs()
			hasData = true
		}
	}

	if !hasData {
		return 0, false
	}
	return total, true
}

// SampleCount returns the number of data points recorded for an exact key.
func (e *Estimator) SampleCount(resourceKey, operation string, bucket job.SizeBucket) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data[Key{ResourceKey: resourceKey, Operation: operation, SizeBucket: bucket}].count
}
