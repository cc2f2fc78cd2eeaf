package status

import (
	"context"
	"fmt"

	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/storage"
)

// ServiceConfig is the configuration for the status service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Status"})

	return nil
}

// Service answers operator status queries for a single task.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// TaskView is the full operator view of a task.
type TaskView struct {
	Task       model.Task
	StageLog   []model.StageEntry
	Leases     []model.PortLease
	Dispatches []model.DispatchRecord
}

// Run returns the task together with its stage log, leases and dispatch
// history.
func (s *Service) Run(ctx context.Context, taskID string) (*TaskView, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("could not get task: %w", err)
	}

	entries, err := s.repo.ListStageEntries(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("could not list stage entries: %w", err)
	}

	leases, err := s.repo.ListTaskLeases(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("could not list leases: %w", err)
	}

	dispatches, err := s.repo.ListTaskDispatches(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("could not list dispatch records: %w", err)
	}

	return &TaskView{
		Task:       *task,
		StageLog:   entries,
		Leases:     leases,
		Dispatches: dispatches,
	}, nil
}
