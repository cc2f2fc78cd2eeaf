package create_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/torc-dev/torc/internal/app/create"
	"github.com/torc-dev/torc/internal/model"
	"github.com/torc-dev/torc/internal/storage/storagemock"
)

func validConfig() model.TaskConfig {
	return model.TaskConfig{
		Name:     "checkout-flow",
		Profile:  model.WorkflowProfileFull,
		Mode:     model.ExecutionModeAutomated,
		RepoPath: "/srv/repos/shop",
		Verification: model.VerificationConfig{
			Frontend: model.ProcessConfig{Image: "shop-frontend:test", PortRange: model.PortRange{From: 3000, To: 3009}},
			Backend:  model.ProcessConfig{Image: "shop-backend:test", PortRange: model.PortRange{From: 8000, To: 8009}},
		},
	}
}

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config create.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: create.ServiceConfig{Repository: &storagemock.MockRepository{}},
		},
		"missing repository should fail": {
			config: create.ServiceConfig{},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			svc, err := create.NewService(test.config)

			if test.expErr {
				require.Error(err)
				require.Nil(svc)
			} else {
				require.NoError(err)
				require.NotNil(svc)
			}
		})
	}
}

func TestServiceRun(t *testing.T) {
	t0 := time.Date(2026, 2, 17, 9, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		config   func() model.TaskConfig
		mockRepo func(m *storagemock.MockRepository)
		expErr   error
	}{
		"A valid configuration should create a backlog task and record its creation.": {
			config: validConfig,
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("CreateTask", mock.Anything, mock.MatchedBy(func(task model.Task) bool {
					return task.ID != "" &&
						task.Name == "checkout-flow" &&
						task.Status == model.StatusBacklog &&
						task.Profile == model.WorkflowProfileFull &&
						task.Mode == model.ExecutionModeAutomated &&
						task.CreatedAt.Equal(t0)
				})).Once().Return(nil)
				m.On("AppendStageEntry", mock.Anything, mock.MatchedBy(func(e model.StageEntry) bool {
					return e.Status == model.StatusBacklog && e.Summary == "task created"
				})).Once().Return(nil)
			},
		},

		"A configuration without a name should be rejected before storage.": {
			config: func() model.TaskConfig {
				c := validConfig()
				c.Name = ""
				return c
			},
			mockRepo: func(m *storagemock.MockRepository) {},
			expErr:   model.ErrNotValid,
		},

		"A full profile without verification images should be rejected.": {
			config: func() model.TaskConfig {
				c := validConfig()
				c.Verification.Backend.Image = ""
				return c
			},
			mockRepo: func(m *storagemock.MockRepository) {},
			expErr:   model.ErrNotValid,
		},

		"A simplified profile should not require verification configuration.": {
			config: func() model.TaskConfig {
				return model.TaskConfig{
					Name:     "quick-fix",
					Profile:  model.WorkflowProfileSimplified,
					Mode:     model.ExecutionModeManual,
					RepoPath: "/srv/repos/shop",
				}
			},
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("CreateTask", mock.Anything, mock.Anything).Once().Return(nil)
				m.On("AppendStageEntry", mock.Anything, mock.Anything).Once().Return(nil)
			},
		},

		"A storage conflict should surface.": {
			config: validConfig,
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("CreateTask", mock.Anything, mock.Anything).Once().Return(fmt.Errorf("task name: %w", model.ErrAlreadyExists))
			},
			expErr: model.ErrAlreadyExists,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			repo := &storagemock.MockRepository{}
			test.mockRepo(repo)

			svc, err := create.NewService(create.ServiceConfig{
				Repository: repo,
				TimeNow:    func() time.Time { return t0 },
			})
			require.NoError(err)

			task, err := svc.Run(context.TODO(), create.Request{Config: test.config()})

			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
			} else {
				require.NoError(err)
				assert.Equal(model.StatusBacklog, task.Status)
				assert.Len(task.ID, 26)
			}
			repo.AssertExpectations(t)
		})
	}
}
