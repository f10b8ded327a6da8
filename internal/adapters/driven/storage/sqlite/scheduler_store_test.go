package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
)

func TestSchedulerStore_SaveAndGetTask(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ss := store.SchedulerStore()

	now := time.Now().UTC().Truncate(time.Second)
	task := &domain.ScheduledTask{
		ID:          domain.TaskIDIndexBuild,
		Name:        "Index Build",
		Interval:    30 * time.Minute,
		LastRun:     now.Add(-20 * time.Minute),
		NextRun:     now.Add(10 * time.Minute),
		LastSuccess: now.Add(-20 * time.Minute),
		Enabled:     true,
	}
	require.NoError(t, ss.SaveTask(ctx, task))

	got, err := ss.GetTask(ctx, domain.TaskIDIndexBuild)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.Name, got.Name)
	assert.Equal(t, task.Interval, got.Interval)
	assert.True(t, got.Enabled)
	assert.WithinDuration(t, task.LastRun, got.LastRun, time.Second)
	assert.WithinDuration(t, task.NextRun, got.NextRun, time.Second)
	assert.WithinDuration(t, task.LastSuccess, got.LastSuccess, time.Second)
}

func TestSchedulerStore_GetTask_NotFound(t *testing.T) {
	store := setupTestStore(t)

	task, err := store.SchedulerStore().GetTask(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestSchedulerStore_SaveTask_Upsert(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ss := store.SchedulerStore()

	task := &domain.ScheduledTask{
		ID:       domain.TaskIDIndexBuild,
		Name:     "Index Build",
		Interval: 1 * time.Hour,
		Enabled:  true,
	}
	require.NoError(t, ss.SaveTask(ctx, task))

	task.Interval = 2 * time.Hour
	task.LastError = "indexer exited with status 1"
	task.Enabled = false
	require.NoError(t, ss.SaveTask(ctx, task))

	got, err := ss.GetTask(ctx, domain.TaskIDIndexBuild)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, got.Interval)
	assert.Equal(t, "indexer exited with status 1", got.LastError)
	assert.False(t, got.Enabled)
}

func TestSchedulerStore_SaveTask_Nil(t *testing.T) {
	store := setupTestStore(t)

	err := store.SchedulerStore().SaveTask(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSchedulerStore_ListTasks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ss := store.SchedulerStore()

	require.NoError(t, ss.SaveTask(ctx, &domain.ScheduledTask{ID: "a", Name: "A", Interval: time.Hour}))
	require.NoError(t, ss.SaveTask(ctx, &domain.ScheduledTask{ID: "b", Name: "B", Interval: time.Hour}))

	tasks, err := ss.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestSchedulerStore_DeleteTask(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ss := store.SchedulerStore()

	require.NoError(t, ss.SaveTask(ctx, &domain.ScheduledTask{ID: "doomed", Interval: time.Hour}))
	require.NoError(t, ss.DeleteTask(ctx, "doomed"))

	task, err := ss.GetTask(ctx, "doomed")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestSchedulerStore_RecordResultAndHistory(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ss := store.SchedulerStore()

	base := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)
	for i := range 3 {
		result := &domain.TaskResult{
			TaskID:         domain.TaskIDIndexBuild,
			RunID:          fmt.Sprintf("run-%d", i),
			StartedAt:      base.Add(time.Duration(i) * time.Minute),
			EndedAt:        base.Add(time.Duration(i)*time.Minute + 30*time.Second),
			Success:        i != 1,
			ItemsProcessed: i,
		}
		if i == 1 {
			result.Error = "snapshot failed"
		}
		require.NoError(t, ss.RecordResult(ctx, result))
	}

	history, err := ss.GetTaskHistory(ctx, domain.TaskIDIndexBuild, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Most recent first.
	assert.Equal(t, "run-2", history[0].RunID)
	assert.Equal(t, "run-1", history[1].RunID)
	assert.False(t, history[1].Success)
	assert.Equal(t, "snapshot failed", history[1].Error)
	assert.Equal(t, 2, history[0].ItemsProcessed)
	assert.WithinDuration(t, base.Add(2*time.Minute), history[0].StartedAt, time.Second)
}

func TestSchedulerStore_PruneHistory(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ss := store.SchedulerStore()

	base := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)
	for i := range 5 {
		require.NoError(t, ss.RecordResult(ctx, &domain.TaskResult{
			TaskID:    domain.TaskIDIndexBuild,
			RunID:     fmt.Sprintf("run-%d", i),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			EndedAt:   base.Add(time.Duration(i) * time.Minute),
			Success:   true,
		}))
	}

	require.NoError(t, ss.PruneHistory(ctx, 2))

	history, err := ss.GetTaskHistory(ctx, domain.TaskIDIndexBuild, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "run-4", history[0].RunID)
	assert.Equal(t, "run-3", history[1].RunID)
}
