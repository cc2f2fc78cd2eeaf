package workflow

import (
	"fmt"

	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
)

// EnvAction tells the caller what the environment manager must do as a
// consequence of a transition.
type EnvAction string

const (
	// EnvNone requires no environment change.
	EnvNone EnvAction = "none"
	// EnvLease requires leasing ports and starting verification servers.
	EnvLease EnvAction = "lease"
	// EnvRelease requires stopping verification servers and releasing ports.
	EnvRelease EnvAction = "release"
)

// Request is an operator transition request.
type Request struct {
	Target model.Status
	// Authorization is the explicit operator token. Required for any edge
	// into the terminal state. The monitoring loop never sets it.
	Authorization string
}

// Decision is the engine's validated outcome for a transition. The engine is
// pure: it proposes, the caller consults the command ledger and the
// environment manager before anything fires.
type Decision struct {
	Next model.Status
	// Command is the side-effecting command associated with entering Next,
	// empty when the status carries no command obligation.
	Command model.Command
	// Env is the environment action entering Next implies.
	Env EnvAction
	// Blocker is a non-empty stall reason when a failure report forces the
	// task back to active work.
	Blocker string
	// Workspace is true when the task needs its isolated workspace created
	// before work can start.
	Workspace bool
}

// EngineConfig is the configuration for the transition engine.
type EngineConfig struct {
	Logger log.Logger
}

func (c *EngineConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "workflow.Engine"})
	return nil
}

// Engine is the single source of truth for which status edges are legal and
// what must fire as a consequence. It never executes side effects itself.
type Engine struct {
	logger log.Logger
}

// NewEngine creates a new transition engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{logger: cfg.Logger}, nil
}

// fullEdges is the declared edge set for the full workflow profile.
var fullEdges = map[model.Status][]model.Status{
	model.StatusBacklog:      {model.StatusAnalysis},
	model.StatusAnalysis:     {model.StatusActiveWork},
	model.StatusActiveWork:   {model.StatusVerification},
	model.StatusVerification: {model.StatusReview, model.StatusActiveWork},
	model.StatusReview:       {model.StatusPendingMerge, model.StatusActiveWork},
	model.StatusPendingMerge: {model.StatusComplete},
	model.StatusComplete:     {},
}

// simplifiedEdges is the declared edge set for the simplified workflow
// profile. Verification and review never occur.
var simplifiedEdges = map[model.Status][]model.Status{
	model.StatusBacklog:    {model.StatusActiveWork},
	model.StatusActiveWork: {model.StatusComplete},
	model.StatusComplete:   {},
}

// commandObligations maps a status to the side-effecting command entering it
// proposes. The monitoring loop's catch-up check uses the same table.
var commandObligations = map[model.Status]model.Command{
	model.StatusActiveWork:   model.CommandStartWork,
	model.StatusVerification: model.CommandRunTests,
	model.StatusReview:       model.CommandRequestReview,
	model.StatusPendingMerge: model.CommandOpenPR,
}

// Edges returns the declared edge set for a workflow profile.
func Edges(profile model.WorkflowProfile) map[model.Status][]model.Status {
	if profile == model.WorkflowProfileSimplified {
		return simplifiedEdges
	}
	return fullEdges
}

// CommandFor returns the command obligation of a status, if any.
func CommandFor(status model.Status) (model.Command, bool) {
	cmd, ok := commandObligations[status]
	return cmd, ok
}

// Decide validates an explicit operator transition request. The requested
// edge is never coerced to the nearest legal one: anything outside the
// declared set fails with model.ErrIllegalTransition.
func (e *Engine) Decide(task model.Task, req Request) (*Decision, error) {
	if !edgeAllowed(task.Profile, task.Status, req.Target) {
		return nil, fmt.Errorf("%s -> %s is not a declared edge for the %s profile: %w",
			task.Status, req.Target, task.Profile, model.ErrIllegalTransition)
	}

	if req.Target == model.StatusComplete && req.Authorization == "" {
		return nil, fmt.Errorf("transition into %s requires an operator token: %w",
			model.StatusComplete, model.ErrMissingAuthorization)
	}

	return e.decision(task, req.Target, ""), nil
}

// Advance computes the candidate transition implied by a work performer
// report for the task's current status. It returns (nil, nil) when the
// report carries no signal for this status. Verification outcomes are only
// ever inferred in automated mode: in manual mode an explicit operator
// request is required and inference fails with model.ErrModeViolation.
func (e *Engine) Advance(task model.Task, report model.Report) (*Decision, error) {
	if report.State == model.ReportStatePending {
		return nil, nil
	}

	switch task.Status {
	case model.StatusAnalysis:
		if report.State == model.ReportStateComplete {
			return e.decision(task, model.StatusActiveWork, ""), nil
		}
		return nil, nil

	case model.StatusActiveWork:
		// Completion of active work only chains forward on the full profile;
		// the simplified profile ends in a terminal state that requires an
		// operator token.
		if task.Profile == model.WorkflowProfileFull && report.State == model.ReportStateComplete {
			return e.decision(task, model.StatusVerification, ""), nil
		}
		return nil, nil

	case model.StatusVerification:
		if task.Mode == model.ExecutionModeManual {
			return nil, fmt.Errorf("verification outcome for task %s must be confirmed by an operator: %w",
				task.ID, model.ErrModeViolation)
		}
		if report.State == model.ReportStateFailed || report.TestSummary == model.TestSummaryFail {
			blocker := report.Detail
			if blocker == "" {
				blocker = "verification tests failed"
			}
			return e.decision(task, model.StatusActiveWork, blocker), nil
		}
		if report.State == model.ReportStateComplete && report.TestSummary == model.TestSummaryPass {
			return e.decision(task, model.StatusReview, ""), nil
		}
		return nil, nil

	case model.StatusReview:
		if report.State == model.ReportStateComplete {
			return e.decision(task, model.StatusPendingMerge, ""), nil
		}
		if report.State == model.ReportStateFailed {
			blocker := report.Detail
			if blocker == "" {
				blocker = "review rejected"
			}
			return e.decision(task, model.StatusActiveWork, blocker), nil
		}
		return nil, nil
	}

	return nil, nil
}

func (e *Engine) decision(task model.Task, next model.Status, blocker string) *Decision {
	d := &Decision{
		Next:    next,
		Blocker: blocker,
		Env:     EnvNone,
	}

	if cmd, ok := commandObligations[next]; ok {
		d.Command = cmd
	}

	if next == model.StatusVerification {
		d.Env = EnvLease
	}
	// Only the regression edge releases the environment implicitly; review
	// and pending merge keep the test servers running.
	if task.Status == model.StatusVerification && next == model.StatusActiveWork {
		d.Env = EnvRelease
	}

	if next == model.StatusActiveWork && task.WorkspaceRef == "" {
		d.Workspace = true
	}

	return d
}

func edgeAllowed(profile model.WorkflowProfile, from, to model.Status) bool {
	for _, next := range Edges(profile)[from] {
		if next == to {
			return true
		}
	}
	return false
}
