package workload

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/kbukum/stackup/orchestrator"
)

// Labels set on every container the Starter deploys.
const (
	LabelManagedBy = "managed-by"
	LabelService   = "io.stackup.service"
	LabelRunID     = "io.stackup.run-id"
)

// DefaultStopTimeout is how long Stop waits before the container is killed.
const DefaultStopTimeout = 10 * time.Second

// Starter starts a service as a container. It implements both
// orchestrator.Starter and orchestrator.Stopper.
type Starter struct {
	Manager Manager
	// Request describes the container. An empty Name defaults to the
	// service id when starting; Stop needs it set.
	Request     DeployRequest
	StopTimeout time.Duration
}

var (
	_ orchestrator.Starter = (*Starter)(nil)
	_ orchestrator.Stopper = (*Starter)(nil)
)

// Start adopts a running container of the same name, replaces a stopped
// one and deploys a new one otherwise.
func (s *Starter) Start(ctx context.Context, req orchestrator.StartRequest) error {
	deploy := s.request(req)

	status, err := s.Manager.Status(ctx, deploy.Name)
	if err != nil {
		return err
	}
	switch {
	case status.Running():
		return nil
	case status.State != StateNotFound:
		if err := s.Manager.Remove(ctx, deploy.Name); err != nil {
			return fmt.Errorf("workload: replace %s: %w", deploy.Name, err)
		}
	}

	_, err = s.Manager.Deploy(ctx, deploy)
	return err
}

// Stop stops and removes the container. A missing container is not an
// error.
func (s *Starter) Stop(ctx context.Context) error {
	name := s.Request.Name
	if name == "" {
		return fmt.Errorf("workload: stop: container name is not set")
	}
	status, err := s.Manager.Status(ctx, name)
	if err != nil {
		return err
	}
	if status.State == StateNotFound {
		return nil
	}

	timeout := s.StopTimeout
	if timeout == 0 {
		timeout = DefaultStopTimeout
	}
	if status.Running() {
		if err := s.Manager.Stop(ctx, name, timeout); err != nil {
			return err
		}
	}
	return s.Manager.Remove(ctx, name)
}

func (s *Starter) request(req orchestrator.StartRequest) DeployRequest {
	deploy := s.Request
	if deploy.Name == "" {
		deploy.Name = req.ServiceID
	}

	deploy.Labels = maps.Clone(deploy.Labels)
	if deploy.Labels == nil {
		deploy.Labels = make(map[string]string, 3)
	}
	deploy.Labels[LabelManagedBy] = "stackup"
	deploy.Labels[LabelService] = req.ServiceID
	deploy.Labels[LabelRunID] = req.RunID

	if deploy.RestartPolicy == "" {
		deploy.RestartPolicy = restartPolicy(req.RestartPolicy)
	}
	return deploy
}

// restartPolicy maps a service restart policy to the runtime's names.
func restartPolicy(p orchestrator.RestartPolicy) string {
	switch p {
	case orchestrator.RestartAlways:
		return "always"
	case orchestrator.RestartOnFailure:
		return "on-failure"
	default:
		return "no"
	}
}
