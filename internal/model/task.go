package model

import (
	"fmt"
	"time"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	// StatusBacklog indicates the task has been created but no work started.
	StatusBacklog Status = "backlog"
	// StatusAnalysis indicates the task is being analyzed before active work.
	StatusAnalysis Status = "analysis"
	// StatusActiveWork indicates a work performer is producing changes.
	StatusActiveWork Status = "active_work"
	// StatusVerification indicates test servers are (or are being) provisioned
	// and the changes are under test.
	StatusVerification Status = "verification"
	// StatusReview indicates the changes await a review verdict.
	StatusReview Status = "review"
	// StatusPendingMerge indicates the review approved and the task awaits merge.
	StatusPendingMerge Status = "pending_merge"
	// StatusComplete is the terminal state. Only an explicit operator command
	// reaches it.
	StatusComplete Status = "complete"
)

// Terminal returns true when the status is a terminal state.
func (s Status) Terminal() bool { return s == StatusComplete }

// WorkflowProfile selects the edge set a task moves through. Fixed at
// creation, never changes mid-life.
type WorkflowProfile string

const (
	// WorkflowProfileFull is the seven state workflow.
	WorkflowProfileFull WorkflowProfile = "full"
	// WorkflowProfileSimplified is the three state workflow, without
	// verification or review.
	WorkflowProfileSimplified WorkflowProfile = "simplified"
)

// ExecutionMode governs whether the monitoring loop may drive transitions
// without operator confirmation.
type ExecutionMode string

const (
	// ExecutionModeManual requires explicit operator signals for verification
	// outcomes.
	ExecutionModeManual ExecutionMode = "manual"
	// ExecutionModeAutomated lets the monitoring loop infer verification
	// outcomes from work performer test reports.
	ExecutionModeAutomated ExecutionMode = "automated"
)

// Endpoints are the test server URLs while a task is in verification.
type Endpoints struct {
	FrontendURL string
	BackendURL  string
}

// Task represents a unit of work tracked through the lifecycle state machine.
type Task struct {
	ID           string
	Name         string
	Status       Status
	Profile      WorkflowProfile
	Mode         ExecutionMode
	WorkspaceRef string // Opaque handle from the workspace provider, set lazily.
	Endpoints    *Endpoints
	Blockers     string
	Config       TaskConfig
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskConfig is the static configuration for creating a task.
// These settings are immutable after creation.
type TaskConfig struct {
	Name         string
	Profile      WorkflowProfile
	Mode         ExecutionMode
	RepoPath     string
	Verification VerificationConfig
}

// VerificationConfig describes the test environment provisioned when a task
// enters verification.
type VerificationConfig struct {
	Frontend ProcessConfig
	Backend  ProcessConfig
}

// ProcessConfig describes a single verification server process.
type ProcessConfig struct {
	Image     string
	PortRange PortRange
}

// Validate validates the task configuration.
func (c *TaskConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required: %w", ErrNotValid)
	}

	switch c.Profile {
	case WorkflowProfileFull, WorkflowProfileSimplified:
	default:
		return fmt.Errorf("unknown workflow profile %q: %w", c.Profile, ErrNotValid)
	}

	switch c.Mode {
	case ExecutionModeManual, ExecutionModeAutomated:
	default:
		return fmt.Errorf("unknown execution mode %q: %w", c.Mode, ErrNotValid)
	}

	// Verification only exists on the full profile.
	if c.Profile == WorkflowProfileFull {
		if err := c.Verification.Frontend.validate("frontend"); err != nil {
			return err
		}
		if err := c.Verification.Backend.validate("backend"); err != nil {
			return err
		}
	}

	return nil
}

func (p *ProcessConfig) validate(role string) error {
	if p.Image == "" {
		return fmt.Errorf("%s image is required: %w", role, ErrNotValid)
	}
	if err := p.PortRange.Validate(); err != nil {
		return fmt.Errorf("%s port range: %w", role, err)
	}
	return nil
}

// StageEntry is a single record of the task's append-only audit trail.
// Entries are immutable once appended.
type StageEntry struct {
	TaskID    string
	Seq       int
	Status    Status
	Summary   string
	Details   string
	Timestamp time.Time
}
