package memory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/storage/memory"
)

func newTestRepo(t *testing.T) *memory.Repository {
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	return repo
}

func newTestTask(id, name string) model.Task {
	return model.Task{
		ID:        id,
		Name:      name,
		Status:    model.StatusBacklog,
		Profile:   model.WorkflowProfileFull,
		Mode:      model.ExecutionModeAutomated,
		CreatedAt: time.Now().UTC(),
	}
}

func TestRepositoryTasks(t *testing.T) {
	tests := map[string]struct {
		actions func(ctx context.Context, t *testing.T, repo *memory.Repository)
	}{
		"Creating and retrieving a task should work": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				err := repo.CreateTask(ctx, newTestTask("task-1", "add-login"))
				require.NoError(t, err)

				got, err := repo.GetTask(ctx, "task-1")
				require.NoError(t, err)
				assert.Equal(t, "add-login", got.Name)
				assert.Equal(t, model.StatusBacklog, got.Status)
			},
		},

		"Creating a duplicate ID should fail": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.CreateTask(ctx, newTestTask("task-1", "add-login")))

				err := repo.CreateTask(ctx, newTestTask("task-1", "other"))
				require.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrAlreadyExists))
			},
		},

		"Creating a duplicate name should fail": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.CreateTask(ctx, newTestTask("task-1", "add-login")))

				err := repo.CreateTask(ctx, newTestTask("task-2", "add-login"))
				require.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrAlreadyExists))
			},
		},

		"Getting a missing task should fail": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				_, err := repo.GetTask(ctx, "missing")
				require.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrNotFound))
			},
		},

		"Updating a task should persist the change": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				task := newTestTask("task-1", "add-login")
				require.NoError(t, repo.CreateTask(ctx, task))

				task.Status = model.StatusActiveWork
				require.NoError(t, repo.UpdateTask(ctx, task))

				got, err := repo.GetTask(ctx, "task-1")
				require.NoError(t, err)
				assert.Equal(t, model.StatusActiveWork, got.Status)
			},
		},

		"Active listing should exclude terminal tasks": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				done := newTestTask("task-1", "done")
				done.Status = model.StatusComplete
				require.NoError(t, repo.CreateTask(ctx, done))
				require.NoError(t, repo.CreateTask(ctx, newTestTask("task-2", "pending")))

				active, err := repo.ListActiveTasks(ctx)
				require.NoError(t, err)
				require.Len(t, active, 1)
				assert.Equal(t, "task-2", active[0].ID)

				all, err := repo.ListTasks(ctx)
				require.NoError(t, err)
				assert.Len(t, all, 2)
			},
		},

		"Stage entries should get increasing sequence numbers": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.CreateTask(ctx, newTestTask("task-1", "add-login")))

				for i := 0; i < 3; i++ {
					err := repo.AppendStageEntry(ctx, model.StageEntry{
						TaskID:    "task-1",
						Status:    model.StatusBacklog,
						Summary:   fmt.Sprintf("entry %d", i),
						Timestamp: time.Now().UTC(),
					})
					require.NoError(t, err)
				}

				entries, err := repo.ListStageEntries(ctx, "task-1")
				require.NoError(t, err)
				require.Len(t, entries, 3)
				for i, e := range entries {
					assert.Equal(t, i+1, e.Seq)
				}
			},
		},

		"Appending a stage entry for a missing task should fail": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				err := repo.AppendStageEntry(ctx, model.StageEntry{TaskID: "missing"})
				require.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrNotFound))
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tt.actions(context.Background(), t, newTestRepo(t))
		})
	}
}

func TestRepositoryLeases(t *testing.T) {
	ctx := context.Background()

	t.Run("Leasing a free port should work and conflict afterwards", func(t *testing.T) {
		repo := newTestRepo(t)

		err := repo.InsertLease(ctx, model.PortLease{Port: 3000, TaskID: "task-1", Role: model.PortRoleFrontend})
		require.NoError(t, err)

		err = repo.InsertLease(ctx, model.PortLease{Port: 3000, TaskID: "task-2", Role: model.PortRoleFrontend})
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrAlreadyExists))
	})

	t.Run("Task leases should be listed and deletable", func(t *testing.T) {
		repo := newTestRepo(t)

		require.NoError(t, repo.InsertLease(ctx, model.PortLease{Port: 3000, TaskID: "task-1", Role: model.PortRoleFrontend}))
		require.NoError(t, repo.InsertLease(ctx, model.PortLease{Port: 8000, TaskID: "task-1", Role: model.PortRoleBackend}))
		require.NoError(t, repo.InsertLease(ctx, model.PortLease{Port: 3001, TaskID: "task-2", Role: model.PortRoleFrontend}))

		leases, err := repo.ListTaskLeases(ctx, "task-1")
		require.NoError(t, err)
		assert.Len(t, leases, 2)

		require.NoError(t, repo.DeleteLease(ctx, 3000))
		require.NoError(t, repo.DeleteLease(ctx, 8000))

		leases, err = repo.ListTaskLeases(ctx, "task-1")
		require.NoError(t, err)
		assert.Empty(t, leases)
	})

	t.Run("Concurrent leasing of the same port should grant exactly one", func(t *testing.T) {
		repo := newTestRepo(t)

		const workers = 32
		var wg sync.WaitGroup
		granted := make(chan struct{}, workers)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(taskID string) {
				defer wg.Done()
				err := repo.InsertLease(ctx, model.PortLease{Port: 4000, TaskID: taskID, Role: model.PortRoleBackend})
				if err == nil {
					granted <- struct{}{}
				}
			}(fmt.Sprintf("task-%d", i))
		}
		wg.Wait()
		close(granted)

		assert.Len(t, granted, 1)
	})
}

func TestRepositoryDispatches(t *testing.T) {
	ctx := context.Background()

	t.Run("Inserting the same key twice should conflict", func(t *testing.T) {
		repo := newTestRepo(t)
		key := model.DispatchKey{TaskID: "task-1", Status: model.StatusReview, Command: model.CommandRequestReview}

		require.NoError(t, repo.InsertDispatch(ctx, model.DispatchRecord{Key: key, Result: model.DispatchResultPending}))

		err := repo.InsertDispatch(ctx, model.DispatchRecord{Key: key, Result: model.DispatchResultPending})
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrAlreadyExists))
	})

	t.Run("Update and delete should work on existing records", func(t *testing.T) {
		repo := newTestRepo(t)
		key := model.DispatchKey{TaskID: "task-1", Status: model.StatusPendingMerge, Command: model.CommandOpenPR}

		require.NoError(t, repo.InsertDispatch(ctx, model.DispatchRecord{Key: key, Result: model.DispatchResultPending}))
		require.NoError(t, repo.UpdateDispatch(ctx, model.DispatchRecord{Key: key, Result: model.DispatchResultFailed, Detail: "network error"}))

		got, err := repo.GetDispatch(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, model.DispatchResultFailed, got.Result)

		require.NoError(t, repo.DeleteDispatch(ctx, key))
		_, err = repo.GetDispatch(ctx, key)
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})
}
