package collaborator

import (
	"context"
	"time"

	"github.com/torc-dev/torc/internal/model"
)

// WorkspaceProvider supplies an isolated workspace (branch + working
// directory) per task. The orchestrator only asks for creation/removal and
// observes whether new commits have landed.
type WorkspaceProvider interface {
	Create(ctx context.Context, task model.Task) (workspaceRef string, err error)
	HasNewCommits(ctx context.Context, workspaceRef string, since time.Time) (bool, error)
	Remove(ctx context.Context, workspaceRef string) error
}

// WorkPerformer is an external entity (automated agent or human operator)
// that asynchronously produces a result for a task and reports completion or
// failure. The orchestrator never implements its internal logic.
type WorkPerformer interface {
	ReportStatus(ctx context.Context, taskID string) (*model.Report, error)
}

// ProcessSpec describes a verification server process to start.
type ProcessSpec struct {
	TaskID string
	Role   model.PortRole
	Image  string
	Port   int
}

// ProcessHandle identifies a running verification server process.
type ProcessHandle struct {
	ID     string
	TaskID string
	Role   model.PortRole
	Port   int
}

// ProcessRunner starts and stops long-running server processes bound to a
// given port and reports whether a port is currently bound system-wide.
type ProcessRunner interface {
	IsPortBound(ctx context.Context, port int) (bool, error)
	Start(ctx context.Context, spec ProcessSpec) (*ProcessHandle, error)
	Stop(ctx context.Context, handle ProcessHandle) error
	// List returns the running processes started for a task. Used to find
	// what to stop during cleanup, including after an orchestrator restart.
	List(ctx context.Context, taskID string) ([]ProcessHandle, error)
}

// CommandDispatchTarget executes a named side-effecting command for a task.
// It is what the command ledger's execute function ultimately calls.
type CommandDispatchTarget interface {
	Execute(ctx context.Context, command model.Command, taskID string) error
}
