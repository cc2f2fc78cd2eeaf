package fake

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/torc-dev/torc/internal/collaborator"
	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
)

// Collaborators is an in-memory implementation of every collaborator
// contract. It simulates workspaces, work performers and processes without
// touching git, Docker or the network, so the orchestrator can run end to
// end in demos and tests.
type Collaborators struct {
	workspaces map[string]time.Time // ref -> last commit time
	reports    map[string]model.Report
	bound      map[int]bool
	processes  map[string]collaborator.ProcessHandle
	executed   []string
	failNext   map[model.Command]error
	mu         sync.Mutex
	logger     log.Logger
}

// CollaboratorsConfig is the configuration for the fake collaborators.
type CollaboratorsConfig struct {
	Logger log.Logger
}

func (c *CollaboratorsConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "collaborator.Fake"})
	return nil
}

// NewCollaborators creates new fake collaborators.
func NewCollaborators(cfg CollaboratorsConfig) (*Collaborators, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Collaborators{
		workspaces: map[string]time.Time{},
		reports:    map[string]model.Report{},
		bound:      map[int]bool{},
		processes:  map[string]collaborator.ProcessHandle{},
		failNext:   map[model.Command]error{},
		logger:     cfg.Logger,
	}, nil
}

// Create creates a fake workspace for the task.
func (c *Collaborators) Create(ctx context.Context, task model.Task) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ref := fmt.Sprintf("torc/%s", task.ID)
	if _, ok := c.workspaces[ref]; ok {
		return "", fmt.Errorf("workspace %s: %w", ref, model.ErrAlreadyExists)
	}
	c.workspaces[ref] = time.Time{}
	c.logger.Debugf("Created fake workspace: %s", ref)

	return ref, nil
}

// HasNewCommits reports whether commits landed on the workspace after since.
func (c *Collaborators) HasNewCommits(ctx context.Context, workspaceRef string, since time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.workspaces[workspaceRef]
	if !ok {
		return false, fmt.Errorf("workspace %s: %w", workspaceRef, model.ErrNotFound)
	}

	return last.After(since), nil
}

// Remove removes a fake workspace.
func (c *Collaborators) Remove(ctx context.Context, workspaceRef string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.workspaces[workspaceRef]; !ok {
		return fmt.Errorf("workspace %s: %w", workspaceRef, model.ErrNotFound)
	}
	delete(c.workspaces, workspaceRef)

	return nil
}

// ReportStatus returns the programmed report for the task, pending when none
// has been set.
func (c *Collaborators) ReportStatus(ctx context.Context, taskID string) (*model.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	report, ok := c.reports[taskID]
	if !ok {
		return &model.Report{State: model.ReportStatePending}, nil
	}

	return &report, nil
}

// IsPortBound reports whether the port is bound.
func (c *Collaborators) IsPortBound(ctx context.Context, port int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.bound[port], nil
}

// Start starts a fake process bound to the spec's port.
func (c *Collaborators) Start(ctx context.Context, spec collaborator.ProcessSpec) (*collaborator.ProcessHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bound[spec.Port] {
		return nil, fmt.Errorf("port %d is already bound: %w", spec.Port, model.ErrPortBindFailed)
	}

	handle := collaborator.ProcessHandle{
		ID:     ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
		TaskID: spec.TaskID,
		Role:   spec.Role,
		Port:   spec.Port,
	}
	c.bound[spec.Port] = true
	c.processes[handle.ID] = handle
	c.logger.Debugf("Started fake process %s on port %d", handle.ID, spec.Port)

	return &handle, nil
}

// Stop stops a fake process.
func (c *Collaborators) Stop(ctx context.Context, handle collaborator.ProcessHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored, ok := c.processes[handle.ID]
	if !ok {
		return fmt.Errorf("process %s: %w", handle.ID, model.ErrNotFound)
	}
	delete(c.processes, handle.ID)
	delete(c.bound, stored.Port)

	return nil
}

// List returns the fake processes running for a task.
func (c *Collaborators) List(ctx context.Context, taskID string) ([]collaborator.ProcessHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	handles := []collaborator.ProcessHandle{}
	for _, h := range c.processes {
		if h.TaskID == taskID {
			handles = append(handles, h)
		}
	}

	return handles, nil
}

// Execute records a command execution, failing if a failure was programmed.
func (c *Collaborators) Execute(ctx context.Context, command model.Command, taskID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err, ok := c.failNext[command]; ok {
		delete(c.failNext, command)
		return err
	}

	c.executed = append(c.executed, fmt.Sprintf("%s:%s", taskID, command))
	c.logger.Infof("Executed fake command %s for task %s", command, taskID)

	return nil
}

// SetReport programs the report returned for a task.
func (c *Collaborators) SetReport(taskID string, report model.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[taskID] = report
}

// SetCommitted marks the workspace as having new commits at the given time.
func (c *Collaborators) SetCommitted(workspaceRef string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workspaces[workspaceRef] = at
}

// BindPort marks a port as bound by an unrelated process.
func (c *Collaborators) BindPort(port int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bound[port] = true
}

// FailNextExecute programs the next execution of a command to fail.
func (c *Collaborators) FailNextExecute(command model.Command, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext[command] = err
}

// Executed returns the commands executed so far as "taskID:command" strings.
func (c *Collaborators) Executed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.executed))
	copy(out, c.executed)
	return out
}
