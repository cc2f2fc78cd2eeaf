package git_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torc-dev/torc/internal/collaborator/git"
	"github.com/torc-dev/torc/internal/model"
)

func initRepo(t *testing.T) (string, *gogit.Repository) {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	commitFile(t, repo, dir, "README.md", "initial", time.Now().Add(-time.Hour))

	return dir, repo
}

func commitFile(t *testing.T, repo *gogit.Repository, dir, name, content string, when time.Time) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)

	_, err = wt.Commit("add "+name, &gogit.CommitOptions{
		Author:    &object.Signature{Name: "tester", Email: "tester@example.com", When: when},
		Committer: &object.Signature{Name: "tester", Email: "tester@example.com", When: when},
	})
	require.NoError(t, err)
}

func newProvider(t *testing.T) *git.WorkspaceProvider {
	t.Helper()
	provider, err := git.NewWorkspaceProvider(git.WorkspaceProviderConfig{})
	require.NoError(t, err)
	return provider
}

func taskForRepo(id, repoPath string) model.Task {
	return model.Task{
		ID:     id,
		Config: model.TaskConfig{RepoPath: repoPath},
	}
}

func TestWorkspaceProviderCreate(t *testing.T) {
	ctx := context.Background()
	dir, _ := initRepo(t)
	provider := newProvider(t)

	ref, err := provider.Create(ctx, taskForRepo("01JTASK000000000000000001", dir))
	require.NoError(t, err)
	assert.Equal(t, dir+"#torc/01jtask000000000000000001", ref)

	t.Run("Creating the same workspace twice should conflict", func(t *testing.T) {
		_, err := provider.Create(ctx, taskForRepo("01JTASK000000000000000001", dir))
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrAlreadyExists))
	})

	t.Run("A task without a repo path should be rejected", func(t *testing.T) {
		_, err := provider.Create(ctx, taskForRepo("01JTASK000000000000000002", ""))
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrNotValid))
	})
}

func TestWorkspaceProviderHasNewCommits(t *testing.T) {
	ctx := context.Background()
	dir, repo := initRepo(t)
	provider := newProvider(t)

	ref, err := provider.Create(ctx, taskForRepo("01JTASK000000000000000003", dir))
	require.NoError(t, err)

	since := time.Now().Add(-30 * time.Minute)

	has, err := provider.HasNewCommits(ctx, ref, since)
	require.NoError(t, err)
	assert.False(t, has)

	// A fresh commit on the default branch moves the task branch only if the
	// branch is checked out; commit on master and point the task branch at it
	// to simulate performer work.
	commitFile(t, repo, dir, "feature.go", "package feature", time.Now())
	head, err := repo.Head()
	require.NoError(t, err)
	_, branch, errSplit := splitWorkspaceRef(ref)
	require.NoError(t, errSplit)
	require.NoError(t, repo.Storer.SetReference(newBranchRef(branch, head.Hash())))

	has, err = provider.HasNewCommits(ctx, ref, since)
	require.NoError(t, err)
	assert.True(t, has)

	t.Run("A malformed ref should be rejected", func(t *testing.T) {
		_, err := provider.HasNewCommits(ctx, "no-separator", since)
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrNotValid))
	})
}

func splitWorkspaceRef(ref string) (string, string, error) {
	idx := strings.LastIndex(ref, "#")
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", fmt.Errorf("malformed ref %q", ref)
	}
	return ref[:idx], ref[idx+1:], nil
}

func newBranchRef(branch string, hash plumbing.Hash) *plumbing.Reference {
	return plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), hash)
}

func TestWorkspaceProviderRemove(t *testing.T) {
	ctx := context.Background()
	dir, _ := initRepo(t)
	provider := newProvider(t)

	ref, err := provider.Create(ctx, taskForRepo("01JTASK000000000000000004", dir))
	require.NoError(t, err)

	require.NoError(t, provider.Remove(ctx, ref))

	err = provider.Remove(ctx, ref)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}
