package create

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/storage"
)

// ServiceConfig is the configuration for the create service.
type ServiceConfig struct {
	Repository storage.Repository
	TimeNow    func() time.Time
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Create"})

	return nil
}

// Service creates tasks in the backlog.
type Service struct {
	repo    storage.Repository
	timeNow func() time.Time
	logger  log.Logger
}

// NewService creates a new create service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:    cfg.Repository,
		timeNow: cfg.TimeNow,
		logger:  cfg.Logger,
	}, nil
}

// Request represents the create request parameters.
type Request struct {
	Config model.TaskConfig
}

// Run creates a new task from its configuration. Every task starts in the
// backlog, whatever the profile.
func (s *Service) Run(ctx context.Context, req Request) (*model.Task, error) {
	if err := req.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task configuration: %w", err)
	}

	now := s.timeNow().UTC()
	task := model.Task{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Name:      req.Config.Name,
		Status:    model.StatusBacklog,
		Profile:   req.Config.Profile,
		Mode:      req.Config.Mode,
		Config:    req.Config,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("could not store task: %w", err)
	}

	entry := model.StageEntry{
		TaskID:    task.ID,
		Status:    task.Status,
		Summary:   "task created",
		Details:   fmt.Sprintf("profile=%s mode=%s", task.Profile, task.Mode),
		Timestamp: now,
	}
	if err := s.repo.AppendStageEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("could not append stage entry: %w", err)
	}

	s.logger.Infof("Created task %s (ID: %s)", task.Name, task.ID)
	return &task, nil
}
