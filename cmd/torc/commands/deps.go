package commands

import (
	"context"
	"fmt"

	"github.com/torc-dev/torc/internal/app/transition"
	"github.com/torc-dev/torc/internal/collaborator"
	"github.com/torc-dev/torc/internal/collaborator/docker"
	"github.com/torc-dev/torc/internal/collaborator/fake"
	"github.com/torc-dev/torc/internal/collaborator/filereport"
	"github.com/torc-dev/torc/internal/collaborator/git"
	"github.com/torc-dev/torc/internal/collaborator/hook"
	"github.com/torc-dev/torc/internal/conventions"
	"github.com/torc-dev/torc/internal/environment"
	"github.com/torc-dev/torc/internal/ledger"
	"github.com/torc-dev/torc/internal/ports"
	"github.com/torc-dev/torc/internal/storage"
	"github.com/torc-dev/torc/internal/storage/sqlite"
	"github.com/torc-dev/torc/internal/workflow"
)

// deps is the shared wiring every stateful command needs: storage, the
// collaborator set and the domain services built on top of them.
type deps struct {
	Repo        storage.Repository
	Engine      *workflow.Engine
	Ledger      *ledger.Ledger
	Registry    *ports.Registry
	Environment *environment.Manager
	Workspaces  collaborator.WorkspaceProvider
	Performer   collaborator.WorkPerformer
	Runner      collaborator.ProcessRunner
	Dispatcher  collaborator.CommandDispatchTarget
	Transition  *transition.Service
}

func buildDeps(ctx context.Context, rootCmd *RootCommand) (*deps, error) {
	logger := rootCmd.Logger

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	d := &deps{Repo: repo}

	switch rootCmd.Collaborators {
	case CollaboratorsFake:
		collabs, err := fake.NewCollaborators(fake.CollaboratorsConfig{Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("could not create fake collaborators: %w", err)
		}
		d.Workspaces = collabs
		d.Performer = collabs
		d.Runner = collabs
		d.Dispatcher = collabs

	case CollaboratorsLocal:
		workspaces, err := git.NewWorkspaceProvider(git.WorkspaceProviderConfig{Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("could not create git workspace provider: %w", err)
		}

		runner, err := docker.NewRunner(docker.RunnerConfig{Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("could not create Docker runner: %w", err)
		}

		performer, err := filereport.NewPerformer(filereport.PerformerConfig{
			ReportsDir: conventions.ReportsPath(rootCmd.DataDir),
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create file report performer: %w", err)
		}

		dispatcher, err := hook.NewTarget(hook.TargetConfig{
			HooksDir: conventions.HooksPath(rootCmd.DataDir),
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create hook dispatch target: %w", err)
		}

		d.Workspaces = workspaces
		d.Performer = performer
		d.Runner = runner
		d.Dispatcher = dispatcher

	default:
		return nil, fmt.Errorf("unknown collaborator wiring %q", rootCmd.Collaborators)
	}

	d.Engine, err = workflow.NewEngine(workflow.EngineConfig{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("could not create transition engine: %w", err)
	}

	d.Ledger, err = ledger.NewLedger(ledger.LedgerConfig{Repository: repo, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("could not create command ledger: %w", err)
	}

	d.Registry, err = ports.NewRegistry(ports.RegistryConfig{Leases: repo, Checker: d.Runner, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("could not create port registry: %w", err)
	}

	d.Environment, err = environment.NewManager(environment.ManagerConfig{Registry: d.Registry, Runner: d.Runner, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("could not create environment manager: %w", err)
	}

	d.Transition, err = transition.NewService(transition.ServiceConfig{
		Repository:  repo,
		Engine:      d.Engine,
		Ledger:      d.Ledger,
		Environment: d.Environment,
		Workspaces:  d.Workspaces,
		Dispatcher:  d.Dispatcher,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create transition service: %w", err)
	}

	return d, nil
}
