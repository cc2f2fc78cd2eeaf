package filereport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
)

// PerformerConfig is the configuration for the file report performer.
type PerformerConfig struct {
	// ReportsDir is the directory watched for "<task-id>.yaml" report files.
	ReportsDir string
	Logger     log.Logger
}

func (c *PerformerConfig) defaults() error {
	if c.ReportsDir == "" {
		return fmt.Errorf("reports dir is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "collaborator.FileReport"})
	return nil
}

// Performer reads work performer reports from the filesystem: external
// agents and human operators drop "<task-id>.yaml" files into a shared
// directory when they finish (or fail) a piece of work. A missing file means
// the performer is still pending.
type Performer struct {
	reportsDir string
	logger     log.Logger
}

// NewPerformer creates a new file report performer.
func NewPerformer(cfg PerformerConfig) (*Performer, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Performer{
		reportsDir: cfg.ReportsDir,
		logger:     cfg.Logger,
	}, nil
}

type reportFile struct {
	State       string `yaml:"state"`
	Detail      string `yaml:"detail"`
	TestSummary string `yaml:"test_summary"`
}

// ReportStatus returns the report dropped for the task, pending when none
// exists yet.
func (p *Performer) ReportStatus(ctx context.Context, taskID string) (*model.Report, error) {
	path := filepath.Join(p.reportsDir, taskID+".yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.Report{State: model.ReportStatePending}, nil
		}
		return nil, fmt.Errorf("could not read report file: %w", err)
	}

	var rf reportFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("could not parse report file %s: %w", path, err)
	}

	report := model.Report{
		State:       model.ReportState(rf.State),
		Detail:      rf.Detail,
		TestSummary: model.TestSummary(rf.TestSummary),
	}

	switch report.State {
	case model.ReportStatePending, model.ReportStateComplete, model.ReportStateFailed:
	default:
		return nil, fmt.Errorf("report file %s has unknown state %q: %w", path, rf.State, model.ErrNotValid)
	}

	p.logger.Debugf("Read report for task %s: %s", taskID, report.State)
	return &report, nil
}
