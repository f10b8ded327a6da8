package driving

import "context"

// Scheduler manages recurring background tasks.
type Scheduler interface {
	// Start begins the scheduler loop. Blocks until Stop is called or
	// the context is cancelled.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the scheduler.
	Stop() error
}
