// Package job defines the stateful representation of a batch job within the
// batchqueue lifecycle.
//
// A Job is an ordered batch of items processed with a single resource key
// (e.g. a model identifier) and a single operation label (e.g. "tag",
// "caption"). Items carry an opaque per-item payload understood only by the
// handler that processes them.
//
// Job and Item values returned by a store.Observer are snapshots: mutating
// them directly does not change the underlying queue state. State
// transitions must be performed through the store.Store operations, which
// are the sole authority over job and item lifecycle.
package job
