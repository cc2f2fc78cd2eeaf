package monitor_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/torc-dev/torc/internal/app/transition"
	"github.com/torc-dev/torc/internal/collaborator"
	"github.com/torc-dev/torc/internal/collaborator/collaboratormock"
	"github.com/torc-dev/torc/internal/collaborator/fake"
	"github.com/torc-dev/torc/internal/environment"
	"github.com/torc-dev/torc/internal/ledger"
	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/monitor"
	"github.com/torc-dev/torc/internal/ports"
	"github.com/torc-dev/torc/internal/storage/memory"
	"github.com/torc-dev/torc/internal/workflow"
)

type testEnv struct {
	loop    *monitor.Loop
	svc     *transition.Service
	repo    *memory.Repository
	collabs *fake.Collaborators
}

// newTestEnv wires the loop the way cmd/torc does, with the fake
// collaborators standing in for git, Docker and the work performer.
// performer overrides the work performer when not nil.
func newTestEnv(t *testing.T, performer collaborator.WorkPerformer) *testEnv {
	require := require.New(t)

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(err)

	collabs, err := fake.NewCollaborators(fake.CollaboratorsConfig{})
	require.NoError(err)

	engine, err := workflow.NewEngine(workflow.EngineConfig{})
	require.NoError(err)

	cmdLedger, err := ledger.NewLedger(ledger.LedgerConfig{Repository: repo})
	require.NoError(err)

	registry, err := ports.NewRegistry(ports.RegistryConfig{Leases: repo, Checker: collabs})
	require.NoError(err)

	envManager, err := environment.NewManager(environment.ManagerConfig{Registry: registry, Runner: collabs})
	require.NoError(err)

	svc, err := transition.NewService(transition.ServiceConfig{
		Repository:  repo,
		Engine:      engine,
		Ledger:      cmdLedger,
		Environment: envManager,
		Workspaces:  collabs,
		Dispatcher:  collabs,
	})
	require.NoError(err)

	if performer == nil {
		performer = collabs
	}

	loop, err := monitor.NewLoop(monitor.LoopConfig{
		Repository:   repo,
		Engine:       engine,
		Ledger:       cmdLedger,
		Registry:     registry,
		Transitioner: svc,
		Performer:    performer,
		Workspaces:   collabs,
		Dispatcher:   collabs,
		Interval:     time.Millisecond,
		QueryTimeout: time.Second,
		Parallelism:  2,
	})
	require.NoError(err)

	return &testEnv{loop: loop, svc: svc, repo: repo, collabs: collabs}
}

func (e *testEnv) createTask(t *testing.T, task model.Task) {
	task.Config = model.TaskConfig{
		Name:    task.Name,
		Profile: task.Profile,
		Mode:    task.Mode,
		Verification: model.VerificationConfig{
			Frontend: model.ProcessConfig{Image: "fe:test", PortRange: model.PortRange{From: 3000, To: 3009}},
			Backend:  model.ProcessConfig{Image: "be:test", PortRange: model.PortRange{From: 8000, To: 8009}},
		},
	}
	require.NoError(t, e.repo.CreateTask(context.TODO(), task))
}

func TestLoopAutomatedPassAdvancesToReview(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	env := newTestEnv(t, nil)
	env.createTask(t, model.Task{
		ID: "tk1", Name: "checkout", Status: model.StatusActiveWork,
		Profile: model.WorkflowProfileFull, Mode: model.ExecutionModeAutomated,
		WorkspaceRef: "torc/tk1",
	})

	_, err := env.svc.Run(context.TODO(), transition.Request{TaskID: "tk1", Target: model.StatusVerification})
	require.NoError(err)

	env.collabs.SetReport("tk1", model.Report{State: model.ReportStateComplete, TestSummary: model.TestSummaryPass})
	require.NoError(env.loop.Cycle(context.TODO()))

	task, err := env.repo.GetTask(context.TODO(), "tk1")
	require.NoError(err)
	assert.Equal(model.StatusReview, task.Status)
	assert.Empty(task.Blockers)

	// run-tests on entering verification, request-review on entering review.
	// Each exactly once.
	assert.Equal([]string{"tk1:run-tests", "tk1:request-review"}, env.collabs.Executed())

	// Review keeps the verification environment alive.
	leases, err := env.repo.ListTaskLeases(context.TODO(), "tk1")
	require.NoError(err)
	assert.Len(leases, 2)

	// A quiet second cycle changes nothing.
	env.collabs.SetReport("tk1", model.Report{State: model.ReportStatePending})
	require.NoError(env.loop.Cycle(context.TODO()))
	task, err = env.repo.GetTask(context.TODO(), "tk1")
	require.NoError(err)
	assert.Equal(model.StatusReview, task.Status)
	assert.Equal([]string{"tk1:run-tests", "tk1:request-review"}, env.collabs.Executed())
}

func TestLoopAutomatedFailRegressesWithBlocker(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	env := newTestEnv(t, nil)
	env.createTask(t, model.Task{
		ID: "tk1", Name: "checkout", Status: model.StatusActiveWork,
		Profile: model.WorkflowProfileFull, Mode: model.ExecutionModeAutomated,
		WorkspaceRef: "torc/tk1",
	})

	_, err := env.svc.Run(context.TODO(), transition.Request{TaskID: "tk1", Target: model.StatusVerification})
	require.NoError(err)

	env.collabs.SetReport("tk1", model.Report{State: model.ReportStateFailed, Detail: "3 API tests failed"})
	require.NoError(env.loop.Cycle(context.TODO()))

	task, err := env.repo.GetTask(context.TODO(), "tk1")
	require.NoError(err)
	assert.Equal(model.StatusActiveWork, task.Status)
	assert.Equal("3 API tests failed", task.Blockers)
	assert.Nil(task.Endpoints)

	leases, err := env.repo.ListTaskLeases(context.TODO(), "tk1")
	require.NoError(err)
	assert.Empty(leases)

	handles, err := env.collabs.List(context.TODO(), "tk1")
	require.NoError(err)
	assert.Empty(handles)
}

func TestLoopManualVerificationNeverInferred(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	env := newTestEnv(t, nil)
	env.createTask(t, model.Task{
		ID: "tk1", Name: "checkout", Status: model.StatusVerification,
		Profile: model.WorkflowProfileFull, Mode: model.ExecutionModeManual,
		WorkspaceRef: "torc/tk1",
	})

	env.collabs.SetReport("tk1", model.Report{State: model.ReportStateComplete, TestSummary: model.TestSummaryPass})
	require.NoError(env.loop.Cycle(context.TODO()))

	task, err := env.repo.GetTask(context.TODO(), "tk1")
	require.NoError(err)
	assert.Equal(model.StatusVerification, task.Status)
}

func TestLoopCatchUpDispatchesMissedCommandOnce(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	env := newTestEnv(t, nil)
	// active_work was persisted but the process died before start-work fired:
	// the ledger has no record for the obligation.
	env.createTask(t, model.Task{
		ID: "tk1", Name: "checkout", Status: model.StatusActiveWork,
		Profile: model.WorkflowProfileFull, Mode: model.ExecutionModeAutomated,
		WorkspaceRef: "torc/tk1",
	})

	require.NoError(env.loop.Cycle(context.TODO()))
	require.NoError(env.loop.Cycle(context.TODO()))

	assert.Equal([]string{"tk1:start-work"}, env.collabs.Executed())

	entries, err := env.repo.ListStageEntries(context.TODO(), "tk1")
	require.NoError(err)
	require.Len(entries, 1)
	assert.Equal("caught up missed command start-work", entries[0].Summary)
}

func TestLoopPerformerFailureIsNoSignal(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	performer := &collaboratormock.MockWorkPerformer{}
	performer.On("ReportStatus", mock.Anything, "tk1").Return(nil, fmt.Errorf("query timed out"))

	env := newTestEnv(t, performer)
	env.createTask(t, model.Task{
		ID: "tk1", Name: "checkout", Status: model.StatusAnalysis,
		Profile: model.WorkflowProfileFull, Mode: model.ExecutionModeAutomated,
	})

	require.NoError(env.loop.Cycle(context.TODO()))

	task, err := env.repo.GetTask(context.TODO(), "tk1")
	require.NoError(err)
	assert.Equal(model.StatusAnalysis, task.Status)
}

func TestLoopRunReconcilesAndStops(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, nil)

	// Lease left behind by a task that finished in a previous life.
	require.NoError(env.repo.InsertLease(context.TODO(), model.PortLease{Port: 3000, TaskID: "ghost", Role: model.PortRoleFrontend}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(env.loop.Run(ctx))

	leases, err := env.repo.ListLeases(context.TODO())
	require.NoError(err)
	assert.Empty(t, leases)
}
