package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
)

// schedulerStore implements driven.SchedulerStore.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

const taskColumns = `id, name, interval_seconds, last_run, next_run, last_error, last_success, enabled`

type taskRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	IntervalSeconds int64          `db:"interval_seconds"`
	LastRun         sql.NullString `db:"last_run"`
	NextRun         sql.NullString `db:"next_run"`
	LastError       sql.NullString `db:"last_error"`
	LastSuccess     sql.NullString `db:"last_success"`
	Enabled         bool           `db:"enabled"`
}

func (r taskRow) toDomain() domain.ScheduledTask {
	return domain.ScheduledTask{
		ID:          r.ID,
		Name:        r.Name,
		Interval:    time.Duration(r.IntervalSeconds) * time.Second,
		LastRun:     parseNullableTime(r.LastRun),
		NextRun:     parseNullableTime(r.NextRun),
		LastError:   r.LastError.String,
		LastSuccess: parseNullableTime(r.LastSuccess),
		Enabled:     r.Enabled,
	}
}

type taskResultRow struct {
	TaskID         string         `db:"task_id"`
	StartedAt      string         `db:"started_at"`
	EndedAt        string         `db:"ended_at"`
	Success        bool           `db:"success"`
	Error          sql.NullString `db:"error"`
	ItemsProcessed int            `db:"items_processed"`
}

// GetTask retrieves a scheduled task by ID.
// Returns nil and no error if the task does not exist.
func (s *schedulerStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	var row taskRow
	err := s.store.db.GetContext(ctx, &row, `SELECT `+taskColumns+` FROM scheduled_tasks WHERE id = ?`, taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting scheduled task: %w", err)
	}
	task := row.toDomain()
	return &task, nil
}

// ListTasks returns all scheduled tasks ordered by ID.
func (s *schedulerStore) ListTasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	var rows []taskRow
	if err := s.store.db.SelectContext(ctx, &rows,
		`SELECT `+taskColumns+` FROM scheduled_tasks ORDER BY id`); err != nil {
		return nil, fmt.Errorf("querying scheduled tasks: %w", err)
	}

	tasks := make([]domain.ScheduledTask, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toDomain())
	}
	return tasks, nil
}

// SaveTask persists a task's state.
// Creates or updates the task based on ID.
func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO scheduled_tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			interval_seconds = excluded.interval_seconds,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_error = excluded.last_error,
			last_success = excluded.last_success,
			enabled = excluded.enabled
	`, task.ID, task.Name, int64(task.Interval.Seconds()),
		formatNullableTime(task.LastRun), formatNullableTime(task.NextRun),
		nullString(task.LastError), formatNullableTime(task.LastSuccess),
		boolToInt(task.Enabled))
	if err != nil {
		return fmt.Errorf("saving scheduled task: %w", err)
	}
	return nil
}

// RecordResult logs a task execution result.
func (s *schedulerStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO task_results (task_id, started_at, ended_at, success, error, items_processed)
		VALUES (?, ?, ?, ?, ?, ?)
	`, result.TaskID, formatTime(result.StartedAt), formatTime(result.EndedAt),
		boolToInt(result.Success), nullString(result.Error), result.ItemsProcessed)
	if err != nil {
		return fmt.Errorf("recording task result: %w", err)
	}
	return nil
}

// RecentResults returns recent results for a task, most recent first.
func (s *schedulerStore) RecentResults(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []taskResultRow
	if err := s.store.db.SelectContext(ctx, &rows, `
		SELECT task_id, started_at, ended_at, success, error, items_processed
		FROM task_results
		WHERE task_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, taskID, limit); err != nil {
		return nil, fmt.Errorf("querying task history: %w", err)
	}

	results := make([]domain.TaskResult, 0, len(rows))
	for _, r := range rows {
		results = append(results, domain.TaskResult{
			TaskID:         r.TaskID,
			StartedAt:      parseTime(r.StartedAt),
			EndedAt:        parseTime(r.EndedAt),
			Success:        r.Success,
			Error:          r.Error.String,
			ItemsProcessed: r.ItemsProcessed,
		})
	}
	return results, nil
}

// PruneHistory keeps the most recent 'keep' results per task.
func (s *schedulerStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM task_results
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY task_id ORDER BY started_at DESC, id DESC) AS rn
				FROM task_results
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning task history: %w", err)
	}
	return nil
}
