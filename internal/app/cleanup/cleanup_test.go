package cleanup_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/torc-dev/torc/internal/app/cleanup"
	"github.com/torc-dev/torc/internal/collaborator"
	"github.com/torc-dev/torc/internal/collaborator/collaboratormock"
	"github.com/torc-dev/torc/internal/collaborator/fake"
	"github.com/torc-dev/torc/internal/environment"
	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/ports"
	"github.com/torc-dev/torc/internal/storage/memory"
	"github.com/torc-dev/torc/internal/workflow"
)

const taskID = "01JMQW3RT5AZXCVBNM4KJH6789"

type testEnv struct {
	svc        *cleanup.Service
	repo       *memory.Repository
	collabs    *fake.Collaborators
	workspaces *collaboratormock.MockWorkspaceProvider
}

func newTestEnv(t *testing.T) *testEnv {
	require := require.New(t)

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(err)

	collabs, err := fake.NewCollaborators(fake.CollaboratorsConfig{})
	require.NoError(err)

	engine, err := workflow.NewEngine(workflow.EngineConfig{})
	require.NoError(err)

	registry, err := ports.NewRegistry(ports.RegistryConfig{Leases: repo, Checker: collabs})
	require.NoError(err)

	envManager, err := environment.NewManager(environment.ManagerConfig{Registry: registry, Runner: collabs})
	require.NoError(err)

	workspaces := &collaboratormock.MockWorkspaceProvider{}

	svc, err := cleanup.NewService(cleanup.ServiceConfig{
		Repository:  repo,
		Engine:      engine,
		Environment: envManager,
		Workspaces:  workspaces,
	})
	require.NoError(err)

	return &testEnv{svc: svc, repo: repo, collabs: collabs, workspaces: workspaces}
}

func (e *testEnv) createPendingMergeTask(t *testing.T) model.Task {
	require := require.New(t)

	task := model.Task{
		ID: taskID, Name: "checkout", Status: model.StatusPendingMerge,
		Profile: model.WorkflowProfileFull, Mode: model.ExecutionModeAutomated,
		WorkspaceRef: "/srv/repos/shop#torc/" + taskID,
	}
	require.NoError(e.repo.CreateTask(context.TODO(), task))

	// Verification leftovers that cleanup must release.
	require.NoError(e.repo.InsertLease(context.TODO(), model.PortLease{Port: 3000, TaskID: taskID, Role: model.PortRoleFrontend}))
	_, err := e.collabs.Start(context.TODO(), collaborator.ProcessSpec{TaskID: taskID, Role: model.PortRoleFrontend, Image: "fe:test", Port: 3000})
	require.NoError(err)

	return task
}

func TestServiceRun(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	env := newTestEnv(t)
	task := env.createPendingMergeTask(t)
	env.workspaces.On("Remove", mock.Anything, task.WorkspaceRef).Once().Return(nil)

	got, err := env.svc.Run(context.TODO(), cleanup.Request{TaskID: taskID, Authorization: "ok-torc"})
	require.NoError(err)

	assert.Equal(model.StatusComplete, got.Status)
	assert.Empty(got.WorkspaceRef)
	assert.Nil(got.Endpoints)

	leases, err := env.repo.ListTaskLeases(context.TODO(), taskID)
	require.NoError(err)
	assert.Empty(leases)

	handles, err := env.collabs.List(context.TODO(), taskID)
	require.NoError(err)
	assert.Empty(handles)

	env.workspaces.AssertExpectations(t)
}

func TestServiceRunRequiresExactID(t *testing.T) {
	tests := map[string]string{
		"a task name":  "checkout",
		"an ID prefix": taskID[:10],
		"empty input":  "",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)

			_, err := env.svc.Run(context.TODO(), cleanup.Request{TaskID: input, Authorization: "ok-torc"})
			assert.ErrorIs(t, err, model.ErrNotValid)
		})
	}
}

func TestServiceRunRequiresAuthorization(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t)
	env.createPendingMergeTask(t)

	_, err := env.svc.Run(context.TODO(), cleanup.Request{TaskID: taskID})
	assert.ErrorIs(err, model.ErrMissingAuthorization)
}

func TestServiceRunRejectsNonCompletableStatus(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	env := newTestEnv(t)
	task := model.Task{
		ID: taskID, Name: "checkout", Status: model.StatusReview,
		Profile: model.WorkflowProfileFull, Mode: model.ExecutionModeAutomated,
	}
	require.NoError(env.repo.CreateTask(context.TODO(), task))

	_, err := env.svc.Run(context.TODO(), cleanup.Request{TaskID: taskID, Authorization: "ok-torc"})
	assert.ErrorIs(err, model.ErrIllegalTransition)
}

func TestServiceRunFailedStepKeepsStatus(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	env := newTestEnv(t)
	task := env.createPendingMergeTask(t)
	env.workspaces.On("Remove", mock.Anything, task.WorkspaceRef).Once().Return(fmt.Errorf("branch is checked out"))

	_, err := env.svc.Run(context.TODO(), cleanup.Request{TaskID: taskID, Authorization: "ok-torc"})
	assert.ErrorIs(err, model.ErrCleanupPrecondition)

	stored, err := env.repo.GetTask(context.TODO(), taskID)
	require.NoError(err)
	assert.Equal(model.StatusPendingMerge, stored.Status)
	assert.Equal(task.WorkspaceRef, stored.WorkspaceRef)
}
