package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/torc-dev/torc/internal/collaborator"
	"github.com/torc-dev/torc/internal/ledger"
	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/storage"
)

// ServiceConfig is the configuration for the retry service.
type ServiceConfig struct {
	Repository storage.Repository
	Ledger     *ledger.Ledger
	Dispatcher collaborator.CommandDispatchTarget
	TimeNow    func() time.Time
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Ledger == nil {
		return fmt.Errorf("command ledger is required")
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Retry"})

	return nil
}

// Service re-dispatches commands that previously failed. This is the only
// path that unburns a dispatch key, and only failed ones.
type Service struct {
	repo       storage.Repository
	ledger     *ledger.Ledger
	dispatcher collaborator.CommandDispatchTarget
	timeNow    func() time.Time
	logger     log.Logger
}

// NewService creates a new retry service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:       cfg.Repository,
		ledger:     cfg.Ledger,
		dispatcher: cfg.Dispatcher,
		timeNow:    cfg.TimeNow,
		logger:     cfg.Logger,
	}, nil
}

// Request represents the retry request parameters.
type Request struct {
	TaskID  string
	Status  model.Status
	Command model.Command
}

// Run re-dispatches the failed command identified by the request.
func (s *Service) Run(ctx context.Context, req Request) error {
	task, err := s.repo.GetTask(ctx, req.TaskID)
	if err != nil {
		return fmt.Errorf("could not get task: %w", err)
	}

	key := model.DispatchKey{TaskID: task.ID, Status: req.Status, Command: req.Command}
	_, err = s.ledger.Retry(ctx, key, func(ctx context.Context) error {
		return s.dispatcher.Execute(ctx, req.Command, task.ID)
	})

	entry := model.StageEntry{
		TaskID:    task.ID,
		Status:    task.Status,
		Summary:   fmt.Sprintf("retried command %s for status %s", req.Command, req.Status),
		Timestamp: s.timeNow().UTC(),
	}
	if err != nil {
		entry.Details = err.Error()
	}
	if appendErr := s.repo.AppendStageEntry(ctx, entry); appendErr != nil {
		return fmt.Errorf("could not append stage entry: %w", appendErr)
	}

	if err != nil {
		return fmt.Errorf("retry failed: %w", err)
	}

	s.logger.Infof("Retried command %s for task %s", req.Command, task.ID)
	return nil
}
