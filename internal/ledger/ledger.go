package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/storage"
)

// Outcome is the result of consulting the ledger for a dispatch key.
type Outcome string

const (
	// OutcomeDispatched indicates the command fired now, for the first time.
	OutcomeDispatched Outcome = "dispatched"
	// OutcomeAlreadyDispatched indicates a record for the key already existed
	// and the command did not fire.
	OutcomeAlreadyDispatched Outcome = "already-dispatched"
)

// DispatchFunc executes the side-effecting command once the ledger has
// granted the key.
type DispatchFunc func(ctx context.Context) error

// LedgerConfig is the configuration for the command ledger.
type LedgerConfig struct {
	Repository storage.DispatchRepository
	TimeNow    func() time.Time
	Logger     log.Logger
}

func (c *LedgerConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "ledger.Ledger"})

	return nil
}

// Ledger guarantees that a (task, status, command) key fires at most once.
// The guarantee rests on the repository's atomic insert: the first caller to
// claim a key owns it, everyone else observes the existing record.
type Ledger struct {
	repo    storage.DispatchRepository
	timeNow func() time.Time
	logger  log.Logger
}

// NewLedger creates a new command ledger.
func NewLedger(cfg LedgerConfig) (*Ledger, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Ledger{
		repo:    cfg.Repository,
		timeNow: cfg.TimeNow,
		logger:  cfg.Logger,
	}, nil
}

// TryDispatch claims the key and, if this is the first claim, runs fn and
// records the result. A failed fn keeps its record with the failure detail:
// the command may have partially reached the outside world, so the key stays
// burned until an operator retries it explicitly.
func (l *Ledger) TryDispatch(ctx context.Context, key model.DispatchKey, fn DispatchFunc) (Outcome, error) {
	logger := l.logger.WithValues(log.Kv{
		"task-id": key.TaskID,
		"status":  key.Status,
		"command": key.Command,
	})

	record := model.DispatchRecord{
		Key:          key,
		Result:       model.DispatchResultPending,
		DispatchedAt: l.timeNow(),
	}
	err := l.repo.InsertDispatch(ctx, record)
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			logger.Debugf("Command already dispatched, skipping")
			return OutcomeAlreadyDispatched, nil
		}
		return "", fmt.Errorf("could not claim dispatch key: %w", err)
	}

	record.Result = model.DispatchResultOK
	if fnErr := fn(ctx); fnErr != nil {
		record.Result = model.DispatchResultFailed
		record.Detail = fnErr.Error()
		logger.Warningf("Command dispatch failed: %s", fnErr)
	}

	if err := l.repo.UpdateDispatch(ctx, record); err != nil {
		return "", fmt.Errorf("could not record dispatch result: %w", err)
	}

	if record.Result == model.DispatchResultFailed {
		return OutcomeDispatched, fmt.Errorf("command %s for task %s failed: %s",
			key.Command, key.TaskID, record.Detail)
	}

	logger.Infof("Command dispatched")
	return OutcomeDispatched, nil
}

// Retry clears a failed record so the command can be dispatched again. Keys
// whose command succeeded stay burned, and keys never dispatched have
// nothing to retry.
func (l *Ledger) Retry(ctx context.Context, key model.DispatchKey, fn DispatchFunc) (Outcome, error) {
	record, err := l.repo.GetDispatch(ctx, key)
	if err != nil {
		return "", fmt.Errorf("could not get dispatch record: %w", err)
	}

	if record.Result != model.DispatchResultFailed {
		return "", fmt.Errorf("command %s for task %s ended in %q, only failed commands can be retried: %w",
			key.Command, key.TaskID, record.Result, model.ErrNotValid)
	}

	if err := l.repo.DeleteDispatch(ctx, key); err != nil {
		return "", fmt.Errorf("could not clear failed dispatch record: %w", err)
	}

	return l.TryDispatch(ctx, key, fn)
}

// History returns every dispatch record of a task.
func (l *Ledger) History(ctx context.Context, taskID string) ([]model.DispatchRecord, error) {
	records, err := l.repo.ListTaskDispatches(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("could not list dispatch records: %w", err)
	}
	return records, nil
}
