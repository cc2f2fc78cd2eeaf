package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/torc-dev/torc/internal/app/create"
	"github.com/torc-dev/torc/internal/printer"
	storageio "github.com/torc-dev/torc/internal/storage/io"
	"github.com/torc-dev/torc/internal/storage/sqlite"
)

type CreateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	file string
}

// NewCreateCommand returns the create command.
func NewCreateCommand(rootCmd *RootCommand, app *kingpin.Application) *CreateCommand {
	c := &CreateCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("create", "Create a new task from a YAML definition.")
	c.Cmd.Flag("file", "Path to the task definition YAML file.").Short('f').Required().StringVar(&c.file)

	return c
}

func (c CreateCommand) Name() string { return c.Cmd.FullCommand() }

func (c CreateCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	abs, err := filepath.Abs(c.file)
	if err != nil {
		return fmt.Errorf("could not resolve task file path: %w", err)
	}
	loader := storageio.NewTaskYAMLRepository(os.DirFS(filepath.Dir(abs)))
	cfg, err := loader.GetTaskConfig(ctx, filepath.Base(abs))
	if err != nil {
		return fmt.Errorf("could not load task definition: %w", err)
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	svc, err := create.NewService(create.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	task, err := svc.Run(ctx, create.Request{Config: cfg})
	if err != nil {
		return fmt.Errorf("could not create task: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	if err := p.PrintMessage(fmt.Sprintf("Created task: %s (ID: %s)", task.Name, task.ID)); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
