package git

import (
	"context"
	"fmt"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
)

const branchPrefix = "torc/"

// WorkspaceProviderConfig is the configuration for the git workspace provider.
type WorkspaceProviderConfig struct {
	Logger log.Logger
}

func (c *WorkspaceProviderConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "collaborator.Git"})
	return nil
}

// WorkspaceProvider isolates each task on its own branch of the task's
// repository. The workspace ref encodes the repository path and the branch
// name as "<repo-path>#<branch>".
type WorkspaceProvider struct {
	logger log.Logger
}

// NewWorkspaceProvider creates a new git workspace provider.
func NewWorkspaceProvider(cfg WorkspaceProviderConfig) (*WorkspaceProvider, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &WorkspaceProvider{logger: cfg.Logger}, nil
}

// Create creates the task branch pointing at the repository HEAD.
func (p *WorkspaceProvider) Create(ctx context.Context, task model.Task) (string, error) {
	if task.Config.RepoPath == "" {
		return "", fmt.Errorf("task %s has no repository path: %w", task.ID, model.ErrNotValid)
	}

	repo, err := gogit.PlainOpen(task.Config.RepoPath)
	if err != nil {
		return "", fmt.Errorf("could not open repository %s: %w", task.Config.RepoPath, err)
	}

	branch := plumbing.NewBranchReferenceName(branchPrefix + strings.ToLower(task.ID))
	if _, err := repo.Reference(branch, false); err == nil {
		return "", fmt.Errorf("branch %s: %w", branch.Short(), model.ErrAlreadyExists)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("could not resolve HEAD: %w", err)
	}

	if err := repo.Storer.SetReference(plumbing.NewHashReference(branch, head.Hash())); err != nil {
		return "", fmt.Errorf("could not create branch %s: %w", branch.Short(), err)
	}

	ref := fmt.Sprintf("%s#%s", task.Config.RepoPath, branch.Short())
	p.logger.Infof("Created workspace %s for task %s", ref, task.ID)

	return ref, nil
}

// HasNewCommits reports whether the workspace branch has commits newer than
// since.
func (p *WorkspaceProvider) HasNewCommits(ctx context.Context, workspaceRef string, since time.Time) (bool, error) {
	repoPath, branch, err := splitRef(workspaceRef)
	if err != nil {
		return false, err
	}

	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return false, fmt.Errorf("could not open repository %s: %w", repoPath, err)
	}

	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return false, fmt.Errorf("workspace branch %s: %w", branch, model.ErrNotFound)
	}

	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return false, fmt.Errorf("could not read branch head commit: %w", err)
	}

	return commit.Committer.When.After(since), nil
}

// Remove deletes the workspace branch. The repository itself is untouched.
func (p *WorkspaceProvider) Remove(ctx context.Context, workspaceRef string) error {
	repoPath, branch, err := splitRef(workspaceRef)
	if err != nil {
		return err
	}

	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return fmt.Errorf("could not open repository %s: %w", repoPath, err)
	}

	branchRef := plumbing.NewBranchReferenceName(branch)
	if _, err := repo.Reference(branchRef, false); err != nil {
		return fmt.Errorf("workspace branch %s: %w", branch, model.ErrNotFound)
	}

	if err := repo.Storer.RemoveReference(branchRef); err != nil {
		return fmt.Errorf("could not remove branch %s: %w", branch, err)
	}

	p.logger.Infof("Removed workspace %s", workspaceRef)
	return nil
}

func splitRef(workspaceRef string) (repoPath, branch string, err error) {
	idx := strings.LastIndex(workspaceRef, "#")
	if idx <= 0 || idx == len(workspaceRef)-1 {
		return "", "", fmt.Errorf("workspace ref %q is malformed: %w", workspaceRef, model.ErrNotValid)
	}
	return workspaceRef[:idx], workspaceRef[idx+1:], nil
}
