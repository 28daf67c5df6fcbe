package job

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Item is a single unit of work inside a Job.
//
// Data carries an opaque per-item payload understood only by the handler
// that processes it (e.g. a file path, an image reference, a document ID),
// serialized as JSON so it can round-trip through the store's payload blob
// and be handed verbatim to the Handler.
type Item struct {
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data"`
	Status     ItemStatus      `json:"status"`
	Error      *string         `json:"error,omitempty"`
	DurationMs *uint64         `json:"durationMs,omitempty"`
	SizeBucket SizeBucket      `json:"sizeBucket"`
}

// Job is an ordered batch of items processed with a single resource key and
// operation label.
//
// Job values returned by a store.Observer are snapshots: mutating them does
// not change the underlying queue state. Transitions must be performed
// through store.Store operations.
type Job struct {
	ID              uuid.UUID       `json:"id"`
	ResourceKey     string          `json:"resourceKey"`
	Operation       string          `json:"operation"`
	OverwritePolicy OverwritePolicy `json:"overwritePolicy"`
	Priority        Priority        `json:"priority"`
	Items           []Item          `json:"items"`

	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	Reordered   bool    `json:"reordered"`
	ReorderNote *string `json:"reorderNote,omitempty"`
}

// ItemByID returns a pointer to the item with the given id within the job,
// or nil if no such item exists.
func (j *Job) ItemByID(id string) *Item {
	for i := range j.Items {
		if j.Items[i].ID == id {
			return &j.Items[i]
		}
	}
	return nil
}

// CompletionSummary is emitted when a job transitions to a terminal status.
type CompletionSummary struct {
	JobID           uuid.UUID `json:"jobId"`
	Operation       string    `json:"operation"`
	ResourceKey     string    `json:"resourceKey"`
	Total           int       `json:"total"`
	Succeeded       int       `json:"succeeded"`
	Failed          int       `json:"failed"`
	SkippedOrCancel int       `json:"skippedOrCancelled"`
	TotalDurationMs uint64    `json:"totalDurationMs"`
	AvgDurationMs   uint64    `json:"avgDurationMs"`
}
