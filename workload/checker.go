package workload

import (
	"context"
	"errors"

	"github.com/kbukum/stackup/probe"
)

// KindContainer probes a container by name through a Manager.
const KindContainer probe.Kind = "container"

// Checker is ready once the target container runs and, when the image
// declares a healthcheck, reports healthy. A container that exited or
// reports unhealthy is an unhealthy answer; a missing container or one
// whose healthcheck is still starting is not ready yet.
type Checker struct {
	Manager Manager
}

var errStarting = errors.New("healthcheck starting")

// Check inspects target once.
func (c *Checker) Check(ctx context.Context, target string) error {
	status, err := c.Manager.Status(ctx, target)
	if err != nil {
		return err
	}

	switch status.State {
	case StateRunning:
	case StateNotFound:
		return errors.New("container not found")
	case StateExited:
		return probe.Unhealthy("container exited with code %d", status.ExitCode)
	default:
		return errors.New("container " + status.State)
	}

	switch status.Health {
	case HealthNone, HealthHealthy:
		return nil
	case HealthUnhealthy:
		return probe.Unhealthy("container healthcheck reports unhealthy")
	default:
		return errStarting
	}
}

// Register adds the container checker for m to r.
func Register(r *probe.Registry, m Manager) {
	r.Register(KindContainer, &Checker{Manager: m})
}
