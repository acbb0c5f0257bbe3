package driven

import (
	"context"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
)

// SchedulerStore persists background task state across restarts of watch mode.
type SchedulerStore interface {
	// GetTask returns nil and no error if the task does not exist.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns all tasks ordered by ID.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask creates or updates a task by ID.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// RecordResult appends a run to the task history.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// RecentResults returns the latest runs of a task, newest first.
	RecentResults(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps only the newest keep results per task.
	PruneHistory(ctx context.Context, keep int) error
}
