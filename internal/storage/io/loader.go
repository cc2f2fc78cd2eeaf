package io

import (
	"context"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/torc-dev/torc/internal/model"
)

// TaskYAMLRepository loads task definitions from YAML files.
type TaskYAMLRepository struct {
	fs fs.FS
}

// NewTaskYAMLRepository creates a new YAML task definition repository.
func NewTaskYAMLRepository(filesystem fs.FS) *TaskYAMLRepository {
	return &TaskYAMLRepository{fs: filesystem}
}

// GetTaskConfig loads a task definition from a YAML file and returns a
// validated domain model.
func (r *TaskYAMLRepository) GetTaskConfig(ctx context.Context, path string) (model.TaskConfig, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.TaskConfig{}, fmt.Errorf("reading task file: %w", err)
	}

	if ctx.Err() != nil {
		return model.TaskConfig{}, ctx.Err()
	}

	var def TaskDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return model.TaskConfig{}, fmt.Errorf("parsing YAML: %w", err)
	}

	cfg := def.toModel()
	if err := cfg.Validate(); err != nil {
		return model.TaskConfig{}, fmt.Errorf("invalid task definition: %w", err)
	}

	return cfg, nil
}

// TaskDefinition represents the YAML structure of an operator task file.
type TaskDefinition struct {
	Name         string              `yaml:"name"`
	Profile      string              `yaml:"profile"`
	Mode         string              `yaml:"mode"`
	RepoPath     string              `yaml:"repo_path"`
	Verification *VerificationConfig `yaml:"verification,omitempty"`
}

// VerificationConfig represents the YAML structure of the verification
// environment section.
type VerificationConfig struct {
	Frontend ProcessConfig `yaml:"frontend"`
	Backend  ProcessConfig `yaml:"backend"`
}

// ProcessConfig represents the YAML structure of a single test server.
type ProcessConfig struct {
	Image     string `yaml:"image"`
	PortRange string `yaml:"port_range"` // "from-to", e.g. "3000-3009".
}

func (d TaskDefinition) toModel() model.TaskConfig {
	cfg := model.TaskConfig{
		Name:     d.Name,
		Profile:  model.WorkflowProfile(d.Profile),
		Mode:     model.ExecutionMode(d.Mode),
		RepoPath: d.RepoPath,
	}
	// Operators mostly want the full automated flow, make the short files work.
	if d.Profile == "" {
		cfg.Profile = model.WorkflowProfileFull
	}
	if d.Mode == "" {
		cfg.Mode = model.ExecutionModeAutomated
	}

	if d.Verification != nil {
		cfg.Verification = model.VerificationConfig{
			Frontend: d.Verification.Frontend.toModel(),
			Backend:  d.Verification.Backend.toModel(),
		}
	}

	return cfg
}

func (p ProcessConfig) toModel() model.ProcessConfig {
	cfg := model.ProcessConfig{Image: p.Image}

	var from, to int
	if n, err := fmt.Sscanf(p.PortRange, "%d-%d", &from, &to); err == nil && n == 2 {
		cfg.PortRange = model.PortRange{From: from, To: to}
	}

	return cfg
}
