package environment

import (
	"context"
	"fmt"

	"github.com/torc-dev/torc/internal/collaborator"
	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/ports"
)

// ManagerConfig is the configuration for the environment manager.
type ManagerConfig struct {
	Registry *ports.Registry
	Runner   collaborator.ProcessRunner
	Logger   log.Logger
}

func (c *ManagerConfig) defaults() error {
	if c.Registry == nil {
		return fmt.Errorf("port registry is required")
	}

	if c.Runner == nil {
		return fmt.Errorf("process runner is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "environment.Manager"})

	return nil
}

// Manager provisions and tears down a task's verification environment: one
// frontend and one backend test server, each bound to a leased port.
// Provisioning is all-or-nothing and endpoints are only reported once both
// servers run.
type Manager struct {
	registry *ports.Registry
	runner   collaborator.ProcessRunner
	logger   log.Logger
}

// NewManager creates a new environment manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Manager{
		registry: cfg.Registry,
		runner:   cfg.Runner,
		logger:   cfg.Logger,
	}, nil
}

// Provision leases a frontend and a backend port for the task and starts
// both verification servers. On any failure everything already provisioned
// is rolled back so no half environment survives.
func (m *Manager) Provision(ctx context.Context, task model.Task) (*model.Endpoints, error) {
	logger := m.logger.WithValues(log.Kv{"task-id": task.ID})

	roles := []struct {
		role model.PortRole
		cfg  model.ProcessConfig
	}{
		{role: model.PortRoleFrontend, cfg: task.Config.Verification.Frontend},
		{role: model.PortRoleBackend, cfg: task.Config.Verification.Backend},
	}

	endpoints := &model.Endpoints{}
	for _, r := range roles {
		lease, err := m.registry.Lease(ctx, task.ID, r.role, r.cfg.PortRange)
		if err != nil {
			m.rollback(ctx, task.ID)
			return nil, fmt.Errorf("could not lease %s port: %w", r.role, err)
		}

		_, err = m.runner.Start(ctx, collaborator.ProcessSpec{
			TaskID: task.ID,
			Role:   r.role,
			Image:  r.cfg.Image,
			Port:   lease.Port,
		})
		if err != nil {
			m.rollback(ctx, task.ID)
			return nil, fmt.Errorf("could not start %s server: %w", r.role, err)
		}

		url := fmt.Sprintf("http://127.0.0.1:%d", lease.Port)
		switch r.role {
		case model.PortRoleFrontend:
			endpoints.FrontendURL = url
		case model.PortRoleBackend:
			endpoints.BackendURL = url
		}

		logger.Infof("Started %s verification server on port %d", r.role, lease.Port)
	}

	return endpoints, nil
}

// Teardown stops the task's verification servers and releases its port
// leases. Safe to call when nothing is provisioned.
func (m *Manager) Teardown(ctx context.Context, taskID string) error {
	handles, err := m.runner.List(ctx, taskID)
	if err != nil {
		return fmt.Errorf("could not list verification servers: %w", err)
	}

	for _, handle := range handles {
		if err := m.runner.Stop(ctx, handle); err != nil {
			return fmt.Errorf("could not stop %s server: %w", handle.Role, err)
		}
	}

	if err := m.registry.ReleaseTask(ctx, taskID); err != nil {
		return fmt.Errorf("could not release ports: %w", err)
	}

	m.logger.WithValues(log.Kv{"task-id": taskID}).Infof("Verification environment released")
	return nil
}

// rollback is best effort, the provision error is what the caller sees.
func (m *Manager) rollback(ctx context.Context, taskID string) {
	if err := m.Teardown(ctx, taskID); err != nil {
		m.logger.WithValues(log.Kv{"task-id": taskID}).Warningf("Rollback of partial environment failed: %s", err)
	}
}
