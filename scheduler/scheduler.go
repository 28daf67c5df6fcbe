package scheduler

import (
	"sort"

	"github.com/castform/batchqueue/job"
)

const reorderNote = "Reordered: grouping by resource to minimize swaps"

// Less reports whether a should run before b under the scheduling order:
// (priority, resource_key, created_at). Resource key comparison is plain
// byte-wise string comparison, which is stable across runs.
func Less(a, b *job.Job) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if a.ResourceKey != b.ResourceKey {
		return a.ResourceKey < b.ResourceKey
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// Reorder sorts the given slice of Queued jobs in place by (priority,
// resource_key, created_at) and reports whether the resulting order
// differs from the input order.
//
// Every job in queued must currently have status job.JobQueued; callers are
// responsible for excluding running/terminal jobs from the slice before
// calling Reorder, since the scheduler never reshuffles jobs outside the
// Queued sub-sequence.
//
// If the sort changes the order, every job in the slice (not only the ones
// whose position moved) has its Reordered flag set and ReorderNote
// populated, matching the original implementation's all-or-nothing
// annotation of a reorder pass. A single-job slice is always left
// unchanged. Reorder is idempotent: calling it twice in a row never
// produces a second change.
func Reorder(queued []*job.Job) bool {
	return ReorderWithNote(queued, reorderNote)
}

// ReorderWithNote behaves like Reorder but stamps a caller-supplied note on
// every job in a changed slice, instead of the default note text. An empty
// note falls back to the default.
func ReorderWithNote(queued []*job.Job, note string) bool {
	if len(queued) < 2 {
		return false
	}
	if note == "" {
		note = reorderNote
	}

	original := make([]string, len(queued))
	for i, j := range queued {
		original[i] = j.ID.String()
	}

	sort.SliceStable(queued, func(i, k int) bool {
		return Less(queued[i], queued[k])
	})

	changed := false
	for i, j := range queued {
		if j.ID.String() != original[i] {
			changed = true
			break
		}
	}
	if !changed {
		return false
	}

	noteCopy := note
	for _, j := range queued {
		j.Reordered = true
		j.ReorderNote = &noteCopy
	}
	return true
}

// SelectNext returns the job that should run next among the given Queued
// jobs, or nil if the slice is empty. It does not mutate the slice or the
// jobs within it; callers wanting reorder bookkeeping should call Reorder
// first.
func SelectNext(queued []*job.Job) *job.Job {
	if len(queued) == 0 {
		return nil
	}
	best := queued[0]
	for _, j := range queued[1:] {
		if Less(j, best) {
			best = j
		}
	}
	return best
}
