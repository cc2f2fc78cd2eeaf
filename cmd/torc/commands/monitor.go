package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/torc-dev/torc/internal/monitor"
)

type MonitorCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	interval    time.Duration
	timeout     time.Duration
	parallelism int
}

// NewMonitorCommand returns the monitor command.
func NewMonitorCommand(rootCmd *RootCommand, app *kingpin.Application) *MonitorCommand {
	c := &MonitorCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("monitor", "Run the monitoring loop until interrupted.")
	c.Cmd.Flag("interval", "Polling interval.").Default("15s").DurationVar(&c.interval)
	c.Cmd.Flag("query-timeout", "Per-collaborator query timeout.").Default("5s").DurationVar(&c.timeout)
	c.Cmd.Flag("parallelism", "How many tasks are processed at once.").Default("4").IntVar(&c.parallelism)

	return c
}

func (c MonitorCommand) Name() string { return c.Cmd.FullCommand() }

func (c MonitorCommand) Run(ctx context.Context) error {
	d, err := buildDeps(ctx, c.rootCmd)
	if err != nil {
		return err
	}

	loop, err := monitor.NewLoop(monitor.LoopConfig{
		Repository:   d.Repo,
		Engine:       d.Engine,
		Ledger:       d.Ledger,
		Registry:     d.Registry,
		Transitioner: d.Transition,
		Performer:    d.Performer,
		Workspaces:   d.Workspaces,
		Dispatcher:   d.Dispatcher,
		Interval:     c.interval,
		QueryTimeout: c.timeout,
		Parallelism:  c.parallelism,
		Logger:       c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create monitoring loop: %w", err)
	}

	return loop.Run(ctx)
}
