package docker

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/torc-dev/torc/internal/collaborator"
	"github.com/torc-dev/torc/internal/log"
	"github.com/torc-dev/torc/internal/model"
)

const (
	labelTaskID = "torc.task-id"
	labelRole   = "torc.role"
	labelPort   = "torc.port"

	readyPollInterval = 250 * time.Millisecond
	readyTimeout      = 30 * time.Second
)

// DockerClient is the interface for Docker operations that we use.
// This allows us to mock the Docker client for testing.
type DockerClient interface {
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

// RunnerConfig is the configuration for the Docker process runner.
type RunnerConfig struct {
	Client DockerClient
	Logger log.Logger
}

func (c *RunnerConfig) defaults() error {
	if c.Client == nil {
		cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			return fmt.Errorf("could not create Docker client: %w", err)
		}
		c.Client = cli
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "collaborator.Docker"})
	return nil
}

// Runner is a Docker implementation of collaborator.ProcessRunner: every
// verification server runs as a container with its port published on
// localhost.
type Runner struct {
	client DockerClient
	logger log.Logger
}

// NewRunner creates a new Docker process runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Runner{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// IsPortBound reports whether anything is listening on the port, whoever
// owns it. A listen probe is the ground truth, not Docker's bookkeeping:
// unrelated processes may occupy candidate ports too.
func (r *Runner) IsPortBound(ctx context.Context, port int) (bool, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return true, nil
	}
	ln.Close()
	return false, nil
}

// Start pulls the image, creates a container publishing the spec port on
// localhost and waits until the container reports running.
func (r *Runner) Start(ctx context.Context, spec collaborator.ProcessSpec) (*collaborator.ProcessHandle, error) {
	containerName := fmt.Sprintf("torc-%s-%s", strings.ToLower(spec.TaskID), spec.Role)

	pullResp, err := r.client.ImagePull(ctx, spec.Image, image.PullOptions{})
	if err != nil {
		return nil, fmt.Errorf("could not pull image %s: %w", spec.Image, err)
	}
	// Consume the pull response to ensure it completes.
	_, _ = io.Copy(io.Discard, pullResp)
	pullResp.Close()

	port := nat.Port(fmt.Sprintf("%d/tcp", spec.Port))
	containerConfig := &container.Config{
		Image:        spec.Image,
		ExposedPorts: nat.PortSet{port: struct{}{}},
		Labels: map[string]string{
			labelTaskID: spec.TaskID,
			labelRole:   string(spec.Role),
			labelPort:   strconv.Itoa(spec.Port),
		},
	}
	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			port: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: strconv.Itoa(spec.Port)}},
		},
	}

	resp, err := r.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, containerName)
	if err != nil {
		return nil, fmt.Errorf("could not create container: %w", err)
	}

	if err := r.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = r.client.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return nil, fmt.Errorf("could not start container on port %d: %v: %w", spec.Port, err, model.ErrPortBindFailed)
	}

	if err := r.waitReady(ctx, resp.ID); err != nil {
		_ = r.client.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return nil, fmt.Errorf("container never became ready on port %d: %v: %w", spec.Port, err, model.ErrPortBindFailed)
	}

	r.logger.Infof("Started %s verification server for task %s on port %d", spec.Role, spec.TaskID, spec.Port)

	return &collaborator.ProcessHandle{
		ID:     resp.ID,
		TaskID: spec.TaskID,
		Role:   spec.Role,
		Port:   spec.Port,
	}, nil
}

// Stop stops and removes the container behind the handle.
func (r *Runner) Stop(ctx context.Context, handle collaborator.ProcessHandle) error {
	timeout := int(30)
	if err := r.client.ContainerStop(ctx, handle.ID, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("could not stop container %s: %w", handle.ID, err)
	}
	if err := r.client.ContainerRemove(ctx, handle.ID, container.RemoveOptions{}); err != nil {
		return fmt.Errorf("could not remove container %s: %w", handle.ID, err)
	}

	r.logger.Debugf("Stopped verification server %s (port %d)", handle.ID, handle.Port)
	return nil
}

// List returns the verification server containers running for a task.
func (r *Runner) List(ctx context.Context, taskID string) ([]collaborator.ProcessHandle, error) {
	containers, err := r.client.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(filters.Arg("label", fmt.Sprintf("%s=%s", labelTaskID, taskID))),
	})
	if err != nil {
		return nil, fmt.Errorf("could not list containers: %w", err)
	}

	handles := make([]collaborator.ProcessHandle, 0, len(containers))
	for _, c := range containers {
		port, _ := strconv.Atoi(c.Labels[labelPort])
		handles = append(handles, collaborator.ProcessHandle{
			ID:     c.ID,
			TaskID: taskID,
			Role:   model.PortRole(c.Labels[labelRole]),
			Port:   port,
		})
	}

	return handles, nil
}

func (r *Runner) waitReady(ctx context.Context, containerID string) error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		inspect, err := r.client.ContainerInspect(ctx, containerID)
		if err != nil {
			return fmt.Errorf("could not inspect container: %w", err)
		}
		if inspect.State != nil && inspect.State.Running {
			return nil
		}
		if inspect.State != nil && inspect.State.Dead {
			return fmt.Errorf("container died during startup")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
