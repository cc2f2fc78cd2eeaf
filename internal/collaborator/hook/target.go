package hook

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
)

// TargetConfig is the configuration for the hook dispatch target.
type TargetConfig struct {
	// HooksDir contains one executable per command name (e.g.
	// "<hooks-dir>/open-pr"). The hook receives the task ID as its first
	// argument.
	HooksDir string
	Logger   log.Logger
}

func (c *TargetConfig) defaults() error {
	if c.HooksDir == "" {
		return fmt.Errorf("hooks dir is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "collaborator.Hook"})
	return nil
}

// Target executes side-effecting commands through operator-supplied hook
// executables. This is the boundary where the orchestrator stops: what
// "open-pr" actually does is the hook's business.
type Target struct {
	hooksDir string
	logger   log.Logger
}

// NewTarget creates a new hook dispatch target.
func NewTarget(cfg TargetConfig) (*Target, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Target{
		hooksDir: cfg.HooksDir,
		logger:   cfg.Logger,
	}, nil
}

// Execute runs the hook for the command, passing the task ID as argument.
func (t *Target) Execute(ctx context.Context, command model.Command, taskID string) error {
	path := filepath.Join(t.hooksDir, string(command))
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("hook for command %s: %w", command, model.ErrNotFound)
	}

	cmd := exec.CommandContext(ctx, path, taskID)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("TORC_TASK_ID=%s", taskID),
		fmt.Sprintf("TORC_COMMAND=%s", command),
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("hook %s failed: %s: %w", command, string(out), err)
	}

	t.logger.Infof("Executed hook %s for task %s", command, taskID)
	return nil
}
