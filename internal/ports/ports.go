package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/storage"
)

// PortStatusChecker reports whether a port is currently bound system-wide,
// by this process or anyone else.
type PortStatusChecker interface {
	IsPortBound(ctx context.Context, port int) (bool, error)
}

// RegistryConfig is the configuration for the port registry.
type RegistryConfig struct {
	Leases  storage.LeaseRepository
	Checker PortStatusChecker
	TimeNow func() time.Time
	Logger  log.Logger
}

func (c *RegistryConfig) defaults() error {
	if c.Leases == nil {
		return fmt.Errorf("lease repository is required")
	}

	if c.Checker == nil {
		return fmt.Errorf("port status checker is required")
	}

	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "ports.Registry"})

	return nil
}

// Registry hands out exclusive port leases inside per-role ranges. The
// atomicity of lease acquisition rests entirely on the repository's insert:
// two concurrent callers asking inside the same range can never be granted
// the same port, one of the inserts loses and moves to the next candidate.
// Ports bound by unrelated processes are skipped, never reclaimed.
type Registry struct {
	leases  storage.LeaseRepository
	checker PortStatusChecker
	timeNow func() time.Time
	logger  log.Logger
}

// NewRegistry creates a new port registry.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Registry{
		leases:  cfg.Leases,
		checker: cfg.Checker,
		timeNow: cfg.TimeNow,
		logger:  cfg.Logger,
	}, nil
}

// Lease grants the task the lowest free port in the range. A port is free
// when it has no lease on record and nothing on the host has it bound. When
// the whole range is exhausted it fails with model.ErrPortBindFailed.
func (r *Registry) Lease(ctx context.Context, taskID string, role model.PortRole, rng model.PortRange) (*model.PortLease, error) {
	if err := rng.Validate(); err != nil {
		return nil, fmt.Errorf("invalid port range: %w", err)
	}

	logger := r.logger.WithValues(log.Kv{"task-id": taskID, "role": role})

	for port := rng.From; port <= rng.To; port++ {
		bound, err := r.checker.IsPortBound(ctx, port)
		if err != nil {
			return nil, fmt.Errorf("could not check port %d: %w", port, err)
		}
		if bound {
			logger.Debugf("Port %d bound by an external process, skipping", port)
			continue
		}

		lease := model.PortLease{
			Port:     port,
			TaskID:   taskID,
			Role:     role,
			LeasedAt: r.timeNow(),
		}
		err = r.leases.InsertLease(ctx, lease)
		if err != nil {
			// Lost the race for this port, move on to the next candidate.
			if errors.Is(err, model.ErrAlreadyExists) {
				continue
			}
			return nil, fmt.Errorf("could not store lease for port %d: %w", port, err)
		}

		logger.Infof("Leased port %d", port)
		return &lease, nil
	}

	return nil, fmt.Errorf("no free port in range %s for role %s: %w", rng, role, model.ErrPortBindFailed)
}

// ReleaseTask releases every lease held by the task.
func (r *Registry) ReleaseTask(ctx context.Context, taskID string) error {
	leases, err := r.leases.ListTaskLeases(ctx, taskID)
	if err != nil {
		return fmt.Errorf("could not list task leases: %w", err)
	}

	for _, lease := range leases {
		if err := r.leases.DeleteLease(ctx, lease.Port); err != nil {
			return fmt.Errorf("could not release port %d: %w", lease.Port, err)
		}
		r.logger.WithValues(log.Kv{"task-id": taskID}).Infof("Released port %d", lease.Port)
	}

	return nil
}

// TaskLeases returns the leases held by a task.
func (r *Registry) TaskLeases(ctx context.Context, taskID string) ([]model.PortLease, error) {
	leases, err := r.leases.ListTaskLeases(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("could not list task leases: %w", err)
	}
	return leases, nil
}

// Reconcile drops leases whose task no longer exists or is no longer in
// verification. Running at startup it removes records orphaned by a crash
// between a release and its persistence. Ports still bound on the host are
// left alone, the occupant owns them now.
func (r *Registry) Reconcile(ctx context.Context, tasks storage.TaskRepository) error {
	leases, err := r.leases.ListLeases(ctx)
	if err != nil {
		return fmt.Errorf("could not list leases: %w", err)
	}

	for _, lease := range leases {
		task, err := tasks.GetTask(ctx, lease.TaskID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("could not get task %s: %w", lease.TaskID, err)
		}
		if task != nil && task.Status == model.StatusVerification {
			continue
		}

		if err := r.leases.DeleteLease(ctx, lease.Port); err != nil {
			return fmt.Errorf("could not release orphaned port %d: %w", lease.Port, err)
		}
		r.logger.Infof("Released orphaned lease on port %d (task %s)", lease.Port, lease.TaskID)
	}

	return nil
}
