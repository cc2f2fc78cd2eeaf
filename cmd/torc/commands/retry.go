package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/torc-dev/torc/internal/app/retry"
	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/printer"
)

type RetryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID  string
	status  string
	command string
}

// NewRetryCommand returns the retry command.
func NewRetryCommand(rootCmd *RootCommand, app *kingpin.Application) *RetryCommand {
	c := &RetryCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("retry", "Re-dispatch a command that previously failed.")
	c.Cmd.Arg("id", "Task ID.").Required().StringVar(&c.taskID)
	c.Cmd.Arg("status", "Status the command belongs to.").Required().EnumVar(&c.status,
		string(model.StatusActiveWork), string(model.StatusVerification),
		string(model.StatusReview), string(model.StatusPendingMerge))
	c.Cmd.Arg("command", "Command to retry.").Required().EnumVar(&c.command,
		string(model.CommandStartWork), string(model.CommandRunTests),
		string(model.CommandRequestReview), string(model.CommandOpenPR))

	return c
}

func (c RetryCommand) Name() string { return c.Cmd.FullCommand() }

func (c RetryCommand) Run(ctx context.Context) error {
	d, err := buildDeps(ctx, c.rootCmd)
	if err != nil {
		return err
	}

	svc, err := retry.NewService(retry.ServiceConfig{
		Repository: d.Repo,
		Ledger:     d.Ledger,
		Dispatcher: d.Dispatcher,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	err = svc.Run(ctx, retry.Request{
		TaskID:  c.taskID,
		Status:  model.Status(c.status),
		Command: model.Command(c.command),
	})
	if err != nil {
		return fmt.Errorf("could not retry command: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	if err := p.PrintMessage(fmt.Sprintf("Retried command %s for task %s", c.command, c.taskID)); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
