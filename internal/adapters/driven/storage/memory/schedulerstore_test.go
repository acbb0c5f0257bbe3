package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
)

func TestSchedulerStore_GetTaskMissing(t *testing.T) {
	store := NewSchedulerStore()

	task, err := store.GetTask(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestSchedulerStore_SaveAndList(t *testing.T) {
	ctx := context.Background()
	store := NewSchedulerStore()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDInboxScan, Interval: time.Minute}))
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDAttachmentExtraction, Enabled: true}))
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDInboxScan, Interval: 2 * time.Minute}))

	tasks, err := store.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, domain.TaskIDAttachmentExtraction, tasks[0].ID)
	assert.Equal(t, 2*time.Minute, tasks[1].Interval)
}

func TestSchedulerStore_ResultsNewestFirstAndPrune(t *testing.T) {
	ctx := context.Background()
	store := NewSchedulerStore()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{
			TaskID:         domain.TaskIDAttachmentExtraction,
			ItemsProcessed: i,
		}))
	}

	recent, err := store.RecentResults(ctx, domain.TaskIDAttachmentExtraction, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 5, recent[0].ItemsProcessed)
	assert.Equal(t, 4, recent[1].ItemsProcessed)

	require.NoError(t, store.PruneHistory(ctx, 3))
	all, err := store.RecentResults(ctx, domain.TaskIDAttachmentExtraction, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[2].ItemsProcessed)
}
