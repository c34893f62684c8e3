package scheduler

import "context"

// Job is a unit of work the worker pool executes. Different job types
// can be implemented (sync jobs, cleanup jobs).
type Job interface {
	// Execute runs the job with the given context.
	// Context should be respected for cancellation and timeouts.
	Execute(ctx context.Context) error

	// ItemID returns the item this job operates on. Used for logging and
	// trace attributes.
	ItemID() string

	// Description returns a human-readable description of the job.
	Description() string
}
