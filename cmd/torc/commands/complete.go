package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/torc-dev/torc/internal/app/cleanup"
	"github.com/torc-dev/torc/internal/printer"
)

type CompleteCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID    string
	authorize string
}

// NewCompleteCommand returns the complete command.
func NewCompleteCommand(rootCmd *RootCommand, app *kingpin.Application) *CompleteCommand {
	c := &CompleteCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("complete", "Complete a task and release everything it holds.")
	c.Cmd.Arg("id", "Exact task ID, names are not accepted.").Required().StringVar(&c.taskID)
	c.Cmd.Flag("authorize", "Operator token.").Required().StringVar(&c.authorize)

	return c
}

func (c CompleteCommand) Name() string { return c.Cmd.FullCommand() }

func (c CompleteCommand) Run(ctx context.Context) error {
	d, err := buildDeps(ctx, c.rootCmd)
	if err != nil {
		return err
	}

	svc, err := cleanup.NewService(cleanup.ServiceConfig{
		Repository:  d.Repo,
		Engine:      d.Engine,
		Environment: d.Environment,
		Workspaces:  d.Workspaces,
		Logger:      c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	task, err := svc.Run(ctx, cleanup.Request{TaskID: c.taskID, Authorization: c.authorize})
	if err != nil {
		return fmt.Errorf("could not complete task: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	if err := p.PrintMessage(fmt.Sprintf("Completed task: %s (ID: %s)", task.Name, task.ID)); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
