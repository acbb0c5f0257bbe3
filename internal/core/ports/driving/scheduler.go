package driving

import "context"

// Scheduler runs pending extraction and upload-folder scans in the background.
type Scheduler interface {
	// Start blocks until the context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop waits for running tasks to finish.
	Stop() error
}
