package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/torc-dev/torc/internal/app/transition"
	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/printer"
)

type TransitionCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID    string
	target    string
	authorize string
}

// NewTransitionCommand returns the transition command.
func NewTransitionCommand(rootCmd *RootCommand, app *kingpin.Application) *TransitionCommand {
	c := &TransitionCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("transition", "Move a task to another status.")
	c.Cmd.Arg("id", "Task ID.").Required().StringVar(&c.taskID)
	c.Cmd.Arg("status", "Target status.").Required().EnumVar(&c.target,
		string(model.StatusBacklog), string(model.StatusAnalysis), string(model.StatusActiveWork),
		string(model.StatusVerification), string(model.StatusReview), string(model.StatusPendingMerge),
		string(model.StatusComplete))
	c.Cmd.Flag("authorize", "Operator token, required for transitions into complete.").StringVar(&c.authorize)

	return c
}

func (c TransitionCommand) Name() string { return c.Cmd.FullCommand() }

func (c TransitionCommand) Run(ctx context.Context) error {
	d, err := buildDeps(ctx, c.rootCmd)
	if err != nil {
		return err
	}

	task, err := d.Transition.Run(ctx, transition.Request{
		TaskID:        c.taskID,
		Target:        model.Status(c.target),
		Authorization: c.authorize,
	})
	if err != nil {
		return fmt.Errorf("could not transition task: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	msg := fmt.Sprintf("Task %s is now %s", task.ID, task.Status)
	if task.Endpoints != nil {
		msg = fmt.Sprintf("%s (frontend %s, backend %s)", msg, task.Endpoints.FrontendURL, task.Endpoints.BackendURL)
	}
	if err := p.PrintMessage(msg); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
