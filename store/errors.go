package store

import "errors"

var (
	// ErrNotFound indicates that a referenced job or item does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrNoFailedItems indicates that RetryFailed was called on a job with
	// no items in job.ItemFailed status.
	ErrNoFailedItems = errors.New("store: no failed items to retry")

	// ErrDuplicateID indicates that Enqueue was called with an id that
	// already exists in the store.
	ErrDuplicateID = errors.New("store: duplicate job id")
)
