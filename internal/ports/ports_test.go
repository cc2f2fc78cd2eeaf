package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/torc-dev/torc/internal/collaborator/collaboratormock"
	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/ports"
	"github.com/torc-dev/torc/internal/storage/memory"
)

func TestRegistryLease(t *testing.T) {
	tests := map[string]struct {
		rng        model.PortRange
		boundPorts map[int]bool
		setup      func(t *testing.T, r *ports.Registry)
		expPort    int
		expErr     error
	}{
		"The lowest port of a free range should be granted.": {
			rng:     model.PortRange{From: 3000, To: 3009},
			expPort: 3000,
		},

		"Ports bound by external processes should be skipped, not reclaimed.": {
			rng:        model.PortRange{From: 3000, To: 3009},
			boundPorts: map[int]bool{3000: true, 3001: true},
			expPort:    3002,
		},

		"Ports already leased should be skipped.": {
			rng: model.PortRange{From: 3000, To: 3009},
			setup: func(t *testing.T, r *ports.Registry) {
				_, err := r.Lease(context.TODO(), "other", model.PortRoleFrontend, model.PortRange{From: 3000, To: 3009})
				require.NoError(t, err)
			},
			expPort: 3001,
		},

		"An exhausted range should fail with a port bind error.": {
			rng:        model.PortRange{From: 3000, To: 3001},
			boundPorts: map[int]bool{3000: true, 3001: true},
			expErr:     model.ErrPortBindFailed,
		},

		"An invalid range should be rejected.": {
			rng:    model.PortRange{From: 3009, To: 3000},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			repo, err := memory.NewRepository(memory.RepositoryConfig{})
			require.NoError(err)

			checker := &collaboratormock.MockProcessRunner{}
			checker.On("IsPortBound", mock.Anything, mock.Anything).Maybe().Return(
				func(_ context.Context, port int) bool { return test.boundPorts[port] }, nil)

			registry, err := ports.NewRegistry(ports.RegistryConfig{Leases: repo, Checker: checker})
			require.NoError(err)

			if test.setup != nil {
				test.setup(t, registry)
			}

			lease, err := registry.Lease(context.TODO(), "tk1", model.PortRoleFrontend, test.rng)

			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}
			require.NoError(err)
			assert.Equal(test.expPort, lease.Port)
			assert.Equal("tk1", lease.TaskID)
			assert.Equal(model.PortRoleFrontend, lease.Role)
		})
	}
}

func TestRegistryLeaseConcurrent(t *testing.T) {
	require := require.New(t)

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(err)

	checker := &collaboratormock.MockProcessRunner{}
	checker.On("IsPortBound", mock.Anything, mock.Anything).Return(false, nil)

	registry, err := ports.NewRegistry(ports.RegistryConfig{Leases: repo, Checker: checker})
	require.NoError(err)

	// Plenty of tasks asking inside the same overlapping range at once. Every
	// grant must be a distinct port.
	const tasks = 16
	rng := model.PortRange{From: 3000, To: 3050}

	grants := make([]*model.PortLease, tasks)
	var wg sync.WaitGroup
	wg.Add(tasks)
	for i := 0; i < tasks; i++ {
		go func(i int) {
			defer wg.Done()
			lease, err := registry.Lease(context.TODO(), string(rune('a'+i)), model.PortRoleBackend, rng)
			assert.NoError(t, err)
			grants[i] = lease
		}(i)
	}
	wg.Wait()

	seen := map[int]string{}
	for _, lease := range grants {
		require.NotNil(lease)
		holder, dup := seen[lease.Port]
		assert.False(t, dup, "port %d granted to both %s and %s", lease.Port, holder, lease.TaskID)
		seen[lease.Port] = lease.TaskID
	}
}

func TestRegistryReleaseTask(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(err)

	checker := &collaboratormock.MockProcessRunner{}
	checker.On("IsPortBound", mock.Anything, mock.Anything).Return(false, nil)

	registry, err := ports.NewRegistry(ports.RegistryConfig{Leases: repo, Checker: checker})
	require.NoError(err)

	_, err = registry.Lease(context.TODO(), "tk1", model.PortRoleFrontend, model.PortRange{From: 3000, To: 3009})
	require.NoError(err)
	_, err = registry.Lease(context.TODO(), "tk1", model.PortRoleBackend, model.PortRange{From: 8000, To: 8009})
	require.NoError(err)
	_, err = registry.Lease(context.TODO(), "tk2", model.PortRoleFrontend, model.PortRange{From: 3000, To: 3009})
	require.NoError(err)

	err = registry.ReleaseTask(context.TODO(), "tk1")
	require.NoError(err)

	leases, err := repo.ListLeases(context.TODO())
	require.NoError(err)
	require.Len(leases, 1)
	assert.Equal("tk2", leases[0].TaskID)

	// Releasing a task without leases is a no-op.
	err = registry.ReleaseTask(context.TODO(), "tk1")
	assert.NoError(err)
}

func TestRegistryReconcile(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(err)

	checker := &collaboratormock.MockProcessRunner{}
	checker.On("IsPortBound", mock.Anything, mock.Anything).Return(false, nil)

	registry, err := ports.NewRegistry(ports.RegistryConfig{Leases: repo, Checker: checker})
	require.NoError(err)

	err = repo.CreateTask(context.TODO(), model.Task{ID: "alive", Name: "alive", Status: model.StatusVerification})
	require.NoError(err)
	err = repo.CreateTask(context.TODO(), model.Task{ID: "done", Name: "done", Status: model.StatusComplete})
	require.NoError(err)
	err = repo.CreateTask(context.TODO(), model.Task{ID: "regressed", Name: "regressed", Status: model.StatusActiveWork})
	require.NoError(err)

	_, err = registry.Lease(context.TODO(), "alive", model.PortRoleFrontend, model.PortRange{From: 3000, To: 3009})
	require.NoError(err)
	_, err = registry.Lease(context.TODO(), "done", model.PortRoleFrontend, model.PortRange{From: 3000, To: 3009})
	require.NoError(err)
	_, err = registry.Lease(context.TODO(), "gone", model.PortRoleFrontend, model.PortRange{From: 3000, To: 3009})
	require.NoError(err)
	_, err = registry.Lease(context.TODO(), "regressed", model.PortRoleFrontend, model.PortRange{From: 3000, To: 3009})
	require.NoError(err)

	err = registry.Reconcile(context.TODO(), repo)
	require.NoError(err)

	leases, err := repo.ListLeases(context.TODO())
	require.NoError(err)
	require.Len(leases, 1)
	assert.Equal("alive", leases[0].TaskID)
}
