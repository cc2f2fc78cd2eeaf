package transition

import (
	"context"
	"fmt"
	"time"

	"github.com/torc-dev/torc/internal/collaborator"
	"github.com/torc-dev/torc/internal/environment"
	"github.com/torc-dev/torc/internal/ledger"
	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/storage"
	"github.com/torc-dev/torc/internal/workflow"
)

// ServiceConfig is the configuration for the transition service.
type ServiceConfig struct {
	Repository  storage.Repository
	Engine      *workflow.Engine
	Ledger      *ledger.Ledger
	Environment *environment.Manager
	Workspaces  collaborator.WorkspaceProvider
	Dispatcher  collaborator.CommandDispatchTarget
	TimeNow     func() time.Time
	Logger      log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Engine == nil {
		return fmt.Errorf("transition engine is required")
	}

	if c.Ledger == nil {
		return fmt.Errorf("command ledger is required")
	}

	if c.Environment == nil {
		return fmt.Errorf("environment manager is required")
	}

	if c.Workspaces == nil {
		return fmt.Errorf("workspace provider is required")
	}

	if c.Dispatcher == nil {
		return fmt.Errorf("command dispatch target is required")
	}

	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Transition"})

	return nil
}

// Service moves tasks along their workflow. It is the only place a task's
// status changes: the engine decides, this service applies the consequences
// in a fixed order (workspace, environment, persistence, stage log, command
// dispatch through the ledger).
type Service struct {
	repo       storage.Repository
	engine     *workflow.Engine
	ledger     *ledger.Ledger
	env        *environment.Manager
	workspaces collaborator.WorkspaceProvider
	dispatcher collaborator.CommandDispatchTarget
	timeNow    func() time.Time
	logger     log.Logger
}

// NewService creates a new transition service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:       cfg.Repository,
		engine:     cfg.Engine,
		ledger:     cfg.Ledger,
		env:        cfg.Environment,
		workspaces: cfg.Workspaces,
		dispatcher: cfg.Dispatcher,
		timeNow:    cfg.TimeNow,
		logger:     cfg.Logger,
	}, nil
}

// Request represents an operator transition request.
type Request struct {
	TaskID        string
	Target        model.Status
	Authorization string
}

// Run validates and applies an operator transition. Rejections leave the
// task untouched but still land in the stage log.
func (s *Service) Run(ctx context.Context, req Request) (*model.Task, error) {
	task, err := s.repo.GetTask(ctx, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not get task: %w", err)
	}

	decision, err := s.engine.Decide(*task, workflow.Request{
		Target:        req.Target,
		Authorization: req.Authorization,
	})
	if err != nil {
		s.recordRejection(ctx, *task, req.Target, err)
		return nil, err
	}

	return s.Apply(ctx, *task, decision)
}

// Apply executes a validated decision. The status is persisted before the
// command fires: if the process dies in between, the monitoring loop's
// catch-up check re-dispatches through the ledger.
func (s *Service) Apply(ctx context.Context, task model.Task, decision *workflow.Decision) (*model.Task, error) {
	logger := s.logger.WithValues(log.Kv{"task-id": task.ID})

	if decision.Workspace {
		ref, err := s.workspaces.Create(ctx, task)
		if err != nil {
			s.recordRejection(ctx, task, decision.Next, err)
			return nil, fmt.Errorf("could not create workspace: %w", err)
		}
		task.WorkspaceRef = ref
		logger.Infof("Created workspace %s", ref)
	}

	switch decision.Env {
	case workflow.EnvLease:
		endpoints, err := s.env.Provision(ctx, task)
		if err != nil {
			s.recordRejection(ctx, task, decision.Next, err)
			return nil, fmt.Errorf("could not provision verification environment: %w", err)
		}
		task.Endpoints = endpoints
	case workflow.EnvRelease:
		if err := s.env.Teardown(ctx, task.ID); err != nil {
			s.recordRejection(ctx, task, decision.Next, err)
			return nil, fmt.Errorf("could not release verification environment: %w", err)
		}
		task.Endpoints = nil
	}

	now := s.timeNow().UTC()
	previous := task.Status
	task.Status = decision.Next
	task.Blockers = decision.Blocker
	task.UpdatedAt = now

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("could not update task: %w", err)
	}

	entry := model.StageEntry{
		TaskID:    task.ID,
		Status:    task.Status,
		Summary:   fmt.Sprintf("transitioned %s -> %s", previous, task.Status),
		Details:   task.Blockers,
		Timestamp: now,
	}
	if err := s.repo.AppendStageEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("could not append stage entry: %w", err)
	}

	logger.Infof("Task %s transitioned %s -> %s", task.ID, previous, task.Status)

	if decision.Command != "" {
		key := model.DispatchKey{TaskID: task.ID, Status: task.Status, Command: decision.Command}
		_, err := s.ledger.TryDispatch(ctx, key, func(ctx context.Context) error {
			return s.dispatcher.Execute(ctx, decision.Command, task.ID)
		})
		if err != nil {
			s.recordRejection(ctx, task, task.Status, err)
			return &task, fmt.Errorf("transition applied but command dispatch failed: %w", err)
		}
	}

	return &task, nil
}

// recordRejection is best effort, the original error is what matters.
func (s *Service) recordRejection(ctx context.Context, task model.Task, target model.Status, cause error) {
	entry := model.StageEntry{
		TaskID:    task.ID,
		Status:    task.Status,
		Summary:   fmt.Sprintf("transition to %s rejected", target),
		Details:   cause.Error(),
		Timestamp: s.timeNow().UTC(),
	}
	if err := s.repo.AppendStageEntry(ctx, entry); err != nil {
		s.logger.WithValues(log.Kv{"task-id": task.ID}).Warningf("Could not record rejected transition: %s", err)
	}
}
