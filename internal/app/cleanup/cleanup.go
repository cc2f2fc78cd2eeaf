package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/torc-dev/torc/internal/collaborator"
	"github.com/torc-dev/torc/internal/environment"
	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/storage"
	"github.com/torc-dev/torc/internal/workflow"
)

// ServiceConfig is the configuration for the cleanup service.
type ServiceConfig struct {
	Repository  storage.Repository
	Engine      *workflow.Engine
	Environment *environment.Manager
	Workspaces  collaborator.WorkspaceProvider
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

	if c.Environment == nil {
		return fmt.Errorf("environment manager is required")
	}

	if c.Workspaces == nil {
		return fmt.Errorf("workspace provider is required")
	}

	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Cleanup"})

	return nil
}

// Service completes a task and tears down everything it holds: verification
// servers, port leases, endpoints and workspace. Teardown is all-or-nothing
// for the status: any failing step leaves the task in its prior status so
// the operator can fix the world and run it again.
type Service struct {
	repo       storage.Repository
	engine     *workflow.Engine
	env        *environment.Manager
	workspaces collaborator.WorkspaceProvider
	timeNow    func() time.Time
	logger     log.Logger
}

// NewService creates a new cleanup service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:       cfg.Repository,
		engine:     cfg.Engine,
		env:        cfg.Environment,
		workspaces: cfg.Workspaces,
		timeNow:    cfg.TimeNow,
		logger:     cfg.Logger,
	}, nil
}

// Request represents the cleanup request parameters.
type Request struct {
	// TaskID must be the exact task ID. Names and prefixes are rejected:
	// cleanup destroys state, guessing the target is not acceptable.
	TaskID        string
	Authorization string
}

// Run completes the task and releases its resources.
func (s *Service) Run(ctx context.Context, req Request) (*model.Task, error) {
	if !looksLikeULID(req.TaskID) {
		return nil, fmt.Errorf("cleanup requires an exact task ID, got %q: %w", req.TaskID, model.ErrNotValid)
	}

	task, err := s.repo.GetTask(ctx, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not get task: %w", err)
	}

	decision, err := s.engine.Decide(*task, workflow.Request{
		Target:        model.StatusComplete,
		Authorization: req.Authorization,
	})
	if err != nil {
		return nil, err
	}

	if err := s.env.Teardown(ctx, task.ID); err != nil {
		return nil, fmt.Errorf("could not tear down verification environment: %v: %w", err, model.ErrCleanupPrecondition)
	}

	if task.WorkspaceRef != "" {
		if err := s.workspaces.Remove(ctx, task.WorkspaceRef); err != nil {
			return nil, fmt.Errorf("could not remove workspace %s: %v: %w", task.WorkspaceRef, err, model.ErrCleanupPrecondition)
		}
	}

	now := s.timeNow().UTC()
	previous := task.Status
	task.Status = decision.Next
	task.Endpoints = nil
	task.WorkspaceRef = ""
	task.Blockers = ""
	task.UpdatedAt = now

	if err := s.repo.UpdateTask(ctx, *task); err != nil {
		return nil, fmt.Errorf("could not update task: %w", err)
	}

	entry := model.StageEntry{
		TaskID:    task.ID,
		Status:    task.Status,
		Summary:   fmt.Sprintf("completed from %s, resources released", previous),
		Timestamp: now,
	}
	if err := s.repo.AppendStageEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("could not append stage entry: %w", err)
	}

	s.logger.Infof("Completed task %s (ID: %s)", task.Name, task.ID)
	return task, nil
}

// looksLikeULID checks if a string looks like a ULID (26 characters, alphanumeric uppercase).
func looksLikeULID(s string) bool {
	if len(s) != 26 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
