package list

import (
	"context"
	"fmt"

	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/storage"
)

// ServiceConfig is the configuration for the list service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.List"})

	return nil
}

// Service lists tasks.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the list request parameters.
type Request struct {
	// ActiveOnly restricts the listing to non-terminal tasks.
	ActiveOnly bool
}

// Run lists the tasks in the repository.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Task, error) {
	var tasks []model.Task
	var err error
	if req.ActiveOnly {
		tasks, err = s.repo.ListActiveTasks(ctx)
	} else {
		tasks, err = s.repo.ListTasks(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("could not list tasks: %w", err)
	}

	return tasks, nil
}
