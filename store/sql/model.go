package sql

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/castform/batchqueue/job"
)

// jobModel is the bun row representation of a job.Job.
//
// Items are stored as a single JSON blob rather than a normalized child
// table: items are always read and written together with their parent job
// (there is no query that touches one item across many jobs), so
// normalizing them would only add join overhead without buying anything.
//
// Seq orders the physical row set. It is assigned once at insert time and
// is only ever rewritten, as a set, across the currently job.JobQueued rows
// during a scheduler.Reorder pass; rows that are not job.JobQueued keep
// their Seq untouched for the rest of their lifetime. ORDER BY seq then
// reproduces the list ordering described in the package doc.
type jobModel struct {
	bun.BaseModel `bun:"table:jobs"`

	ID  uuid.UUID `bun:"id,pk,type:uuid"`
	Seq int64     `bun:"seq,notnull"`

	ResourceKey     string              `bun:"resource_key,notnull"`
	Operation       string              `bun:"operation,notnull"`
	OverwritePolicy job.OverwritePolicy `bun:"overwrite_policy,notnull"`
	Priority        job.Priority        `bun:"priority,notnull"`
	Status          job.JobStatus       `bun:"status,notnull"`

	ItemsJSON []byte `bun:"items,type:blob,notnull"`

	CreatedAt   time.Time  `bun:"created_at,notnull"`
	StartedAt   *time.Time `bun:"started_at,nullzero"`
	CompletedAt *time.Time `bun:"completed_at,nullzero"`

	Reordered   bool    `bun:"reordered,notnull,default:false"`
	ReorderNote *string `bun:"reorder_note,nullzero"`
}

func (m *jobModel) toJob() (*job.Job, error) {
	var items []job.Item
	if len(m.ItemsJSON) > 0 {
		if err := json.Unmarshal(m.ItemsJSON, &items); err != nil {
			return nil, err
		}
	}
	return &job.Job{
		ID:              m.ID,
		ResourceKey:     m.ResourceKey,
		Operation:       m.Operation,
		OverwritePolicy: m.OverwritePolicy,
		Priority:        m.Priority,
		Items:           items,
		Status:          m.Status,
		CreatedAt:       m.CreatedAt,
		StartedAt:       m.StartedAt,
		CompletedAt:     m.CompletedAt,
		Reordered:       m.Reordered,
		ReorderNote:     m.ReorderNote,
	}, nil
}

func fromJob(j *job.Job, seq int64) (*jobModel, error) {
	items, err := json.Marshal(j.Items)
	if err != nil {
		return nil, err
	}
	return &jobModel{
		ID:              j.ID,
		Seq:             seq,
		ResourceKey:     j.ResourceKey,
		Operation:       j.Operation,
		OverwritePolicy: j.OverwritePolicy,
		Priority:        j.Priority,
		Status:          j.Status,
		ItemsJSON:       items,
		CreatedAt:       j.CreatedAt,
		StartedAt:       j.StartedAt,
		CompletedAt:     j.CompletedAt,
		Reordered:       j.Reordered,
		ReorderNote:     j.ReorderNote,
	}, nil
}
