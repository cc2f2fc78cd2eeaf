package monitor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/torc-dev/torc/internal/collaborator"
	"github.com/torc-dev/torc/internal/ledger"
	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/ports"
	"github.com/torc-dev/torc/internal/storage"
	"github.com/torc-dev/torc/internal/workflow"
)

// Transitioner applies a validated workflow decision to a task.
// app/transition.Service is the real implementation.
type Transitioner interface {
	Apply(ctx context.Context, task model.Task, decision *workflow.Decision) (*model.Task, error)
}

// LoopConfig is the configuration for the monitoring loop.
type LoopConfig struct {
	Repository   storage.Repository
	Engine       *workflow.Engine
	Ledger       *ledger.Ledger
	Registry     *ports.Registry
	Transitioner Transitioner
	Performer    collaborator.WorkPerformer
	Workspaces   collaborator.WorkspaceProvider
	Dispatcher   collaborator.CommandDispatchTarget
	// Interval between polling cycles.
	Interval time.Duration
	// QueryTimeout bounds every collaborator query. A timed out query is a
	// no-signal for that cycle, never a failure signal.
	QueryTimeout time.Duration
	// Parallelism bounds how many tasks are processed at once. A single task
	// is always processed serially.
	Parallelism int
	TimeNow     func() time.Time
	Logger      log.Logger
}

func (c *LoopConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Engine == nil {
		return fmt.Errorf("transition engine is required")
	}

	if c.Ledger == nil {
		return fmt.Errorf("command ledger is required")
	}

	if c.Registry == nil {
		return fmt.Errorf("port registry is required")
	}

	if c.Transitioner == nil {
		return fmt.Errorf("transitioner is required")
	}

	if c.Performer == nil {
		return fmt.Errorf("work performer is required")
	}

	if c.Workspaces == nil {
		return fmt.Errorf("workspace provider is required")
	}

	if c.Dispatcher == nil {
		return fmt.Errorf("command dispatch target is required")
	}

	if c.Interval == 0 {
		c.Interval = 15 * time.Second
	}

	if c.QueryTimeout == 0 {
		c.QueryTimeout = 5 * time.Second
	}

	if c.Parallelism == 0 {
		c.Parallelism = 4
	}

	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "monitor.Loop"})

	return nil
}

// Loop polls collaborators at a fixed interval and drives tasks through
// their workflow from the signals it observes. Tasks that never report
// simply stay where they are: silence is not a failure.
type Loop struct {
	repo         storage.Repository
	engine       *workflow.Engine
	ledger       *ledger.Ledger
	registry     *ports.Registry
	transitioner Transitioner
	performer    collaborator.WorkPerformer
	workspaces   collaborator.WorkspaceProvider
	dispatcher   collaborator.CommandDispatchTarget
	interval     time.Duration
	queryTimeout time.Duration
	parallelism  int
	timeNow      func() time.Time
	logger       log.Logger
}

// NewLoop creates a new monitoring loop.
func NewLoop(cfg LoopConfig) (*Loop, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Loop{
		repo:         cfg.Repository,
		engine:       cfg.Engine,
		ledger:       cfg.Ledger,
		registry:     cfg.Registry,
		transitioner: cfg.Transitioner,
		performer:    cfg.Performer,
		workspaces:   cfg.Workspaces,
		dispatcher:   cfg.Dispatcher,
		interval:     cfg.Interval,
		queryTimeout: cfg.QueryTimeout,
		parallelism:  cfg.Parallelism,
		timeNow:      cfg.TimeNow,
		logger:       cfg.Logger,
	}, nil
}

// Run reconciles leases once and then polls until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.registry.Reconcile(ctx, l.repo); err != nil {
		return fmt.Errorf("could not reconcile port leases: %w", err)
	}

	l.logger.Infof("Monitoring loop started (interval %s)", l.interval)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if err := l.Cycle(ctx); err != nil {
			l.logger.Errorf("Monitoring cycle failed: %s", err)
		}

		select {
		case <-ctx.Done():
			l.logger.Infof("Monitoring loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Cycle processes every non-terminal task once. Tasks are processed in
// parallel up to the configured bound, each task serially.
func (l *Loop) Cycle(ctx context.Context) error {
	tasks, err := l.repo.ListActiveTasks(ctx)
	if err != nil {
		return fmt.Errorf("could not list active tasks: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.parallelism)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			l.processTask(ctx, task)
			return nil
		})
	}

	return g.Wait()
}

// processTask absorbs its own errors: one broken task must never stall the
// rest of the cycle.
func (l *Loop) processTask(ctx context.Context, task model.Task) {
	logger := l.logger.WithValues(log.Kv{"task-id": task.ID, "status": task.Status})

	l.catchUp(ctx, task, logger)

	qctx, cancel := context.WithTimeout(ctx, l.queryTimeout)
	defer cancel()

	report, err := l.performer.ReportStatus(qctx, task.ID)
	if err != nil {
		// No signal this cycle. Timeouts and transport failures are
		// indistinguishable from silence on purpose.
		logger.Warningf("Work performer query failed, no signal: %s", err)
		return
	}

	l.observeCommits(qctx, task, logger)

	// Verification outcomes are never inferred for manual tasks, the
	// operator confirms them explicitly.
	if task.Status == model.StatusVerification && task.Mode == model.ExecutionModeManual {
		logger.Debugf("Manual task, skipping verification inference")
		return
	}

	decision, err := l.engine.Advance(task, *report)
	if err != nil {
		logger.Warningf("Report discarded: %s", err)
		return
	}
	if decision == nil {
		return
	}

	if _, err := l.transitioner.Apply(ctx, task, decision); err != nil {
		logger.Errorf("Could not apply transition to %s: %s", decision.Next, err)
	}
}

// catchUp re-dispatches the command obligation of the task's current status
// when the ledger has no record of it. This closes the gap left by a crash
// between a persisted transition and its command dispatch. The ledger makes
// a double dispatch impossible.
func (l *Loop) catchUp(ctx context.Context, task model.Task, logger log.Logger) {
	command, ok := workflow.CommandFor(task.Status)
	if !ok {
		return
	}

	key := model.DispatchKey{TaskID: task.ID, Status: task.Status, Command: command}
	outcome, err := l.ledger.TryDispatch(ctx, key, func(ctx context.Context) error {
		return l.dispatcher.Execute(ctx, command, task.ID)
	})
	if err != nil {
		logger.Warningf("Catch-up dispatch of %s failed: %s", command, err)
		return
	}

	if outcome == ledger.OutcomeDispatched {
		logger.Infof("Caught up missed command %s", command)
		entry := model.StageEntry{
			TaskID:    task.ID,
			Status:    task.Status,
			Summary:   fmt.Sprintf("caught up missed command %s", command),
			Timestamp: l.timeNow().UTC(),
		}
		if err := l.repo.AppendStageEntry(ctx, entry); err != nil {
			logger.Warningf("Could not record catch-up: %s", err)
		}
	}
}

// observeCommits only logs: commit activity is a liveness hint, not a
// workflow signal.
func (l *Loop) observeCommits(ctx context.Context, task model.Task, logger log.Logger) {
	if task.WorkspaceRef == "" || task.Status != model.StatusActiveWork {
		return
	}

	hasNew, err := l.workspaces.HasNewCommits(ctx, task.WorkspaceRef, task.UpdatedAt)
	if err != nil {
		logger.Debugf("Could not check workspace commits: %s", err)
		return
	}
	if hasNew {
		logger.Debugf("New commits observed on %s", task.WorkspaceRef)
	}
}
