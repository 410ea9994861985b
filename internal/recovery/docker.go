package recovery

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"go.uber.org/zap"

	"github.com/kael9/remedy/internal/model"
)

// DockerRestartExecutor restarts the container backing a service. It
// is the one executor in this tree that mutates real infrastructure;
// bind it to service_restart when the host runs workloads in Docker.
type DockerRestartExecutor struct {
	logger     *zap.Logger
	docker     *client.Client
	containers map[string]string // service name -> container name or ID
}

// NewDockerRestartExecutor creates a restart executor using the Docker
// daemon from the environment
func NewDockerRestartExecutor(containers map[string]string, logger *zap.Logger) (*DockerRestartExecutor, error) {
	docker, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return &DockerRestartExecutor{
		logger:     logger.Named("docker-restart"),
		docker:     docker,
		containers: containers,
	}, nil
}

// Execute implements StrategyExecutor
func (e *DockerRestartExecutor) Execute(ctx context.Context, action *model.RecoveryAction) (*model.ExecutionResult, error) {
	containerID, ok := e.containers[action.Service]
	if !ok {
		return nil, fmt.Errorf("no container mapped for service: %s", action.Service)
	}

	timeout := intParam(action.Parameters, "timeout_seconds", 30)
	graceful := boolParam(action.Parameters, "graceful", true)

	opts := container.StopOptions{}
	if graceful {
		opts.Timeout = &timeout
	}

	e.logger.Info("Restarting container",
		zap.String("service", action.Service),
		zap.String("container", containerID),
		zap.Bool("graceful", graceful))

	if err := e.docker.ContainerRestart(ctx, containerID, opts); err != nil {
		return nil, fmt.Errorf("failed to restart container %s: %w", containerID, err)
	}

	return &model.ExecutionResult{
		Success: true,
		Message: "Service restarted",
		Details: map[string]interface{}{
			"container": containerID,
			"graceful":  graceful,
		},
	}, nil
}
