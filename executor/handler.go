package executor

import (
	"context"
	"encoding/json"
)

// Handler is supplied by the embedder and performs the actual work for a
// single item.
type Handler interface {
	// Process executes the operation for one item's payload against the
	// given resource. A nil error means success; output may carry a
	// human-readable result string and is ignored on failure.
	Process(ctx context.Context, payload json.RawMessage, resourceKey, operation string) (output string, err error)

	// ShouldSkip reports whether an item should be skipped under the
	// job's Skip overwrite policy, e.g. because the target already has
	// data. Handlers with no meaningful notion of "already has data"
	// should always return false.
	ShouldSkip(payload json.RawMessage, operation string) bool
}
