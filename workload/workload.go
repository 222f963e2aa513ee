package workload

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Manager manages named containers.
type Manager interface {
	// Deploy creates and starts a container.
	Deploy(ctx context.Context, req DeployRequest) (*DeployResult, error)
	// Stop stops a running container, waiting up to timeout before it is
	// killed.
	Stop(ctx context.Context, name string, timeout time.Duration) error
	// Remove deletes a stopped container.
	Remove(ctx context.Context, name string) error
	// Status inspects a container. A missing container is reported with
	// StateNotFound, not an error.
	Status(ctx context.Context, name string) (*Status, error)
	// HealthCheck verifies the runtime is reachable.
	HealthCheck(ctx context.Context) error
}

// Container states.
const (
	StateCreated    = "created"
	StateRunning    = "running"
	StateRestarting = "restarting"
	StateExited     = "exited"
	StateNotFound   = "not_found"
)

// Health states reported by the container's own healthcheck.
const (
	HealthNone      = ""
	HealthStarting  = "starting"
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
)

// DeployRequest describes a container to run.
type DeployRequest struct {
	Name        string
	Image       string
	Command     []string
	Environment map[string]string
	Labels      map[string]string
	WorkDir     string
	Ports       []PortMapping
	Volumes     []VolumeMount
	// Network is a network name, "host" or "bridge". Empty uses the
	// manager's default.
	Network string
	// RestartPolicy is "no", "always" or "on-failure".
	RestartPolicy string
	Platform      string
	Resources     *ResourceLimits
}

// DeployResult is returned after a successful deployment.
type DeployResult struct {
	ID   string
	Name string
}

// Status is the inspected state of a container.
type Status struct {
	ID    string
	Name  string
	Image string
	State string
	// Health is empty when the image declares no healthcheck.
	Health    string
	ExitCode  int
	Message   string
	StartedAt time.Time
}

// Running reports whether the container process is up.
func (s *Status) Running() bool { return s.State == StateRunning }

// PortMapping publishes a container port on the host.
type PortMapping struct {
	Host      int
	Container int
	Protocol  string // "tcp" (default) or "udp"
}

// VolumeMount bind-mounts a host path or named volume.
type VolumeMount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// ParsePort parses the compose short form "[host:]container[/protocol]".
func ParsePort(s string) (PortMapping, error) {
	var p PortMapping
	spec, proto, ok := strings.Cut(s, "/")
	if ok {
		if proto != "tcp" && proto != "udp" {
			return p, fmt.Errorf("workload: port %q: protocol must be tcp or udp", s)
		}
		p.Protocol = proto
	}

	host, ctr, hasHost := strings.Cut(spec, ":")
	if !hasHost {
		ctr, host = host, ""
	}
	var err error
	if p.Container, err = parsePortNumber(ctr); err != nil {
		return p, fmt.Errorf("workload: port %q: %w", s, err)
	}
	if host != "" {
		if p.Host, err = parsePortNumber(host); err != nil {
			return p, fmt.Errorf("workload: port %q: %w", s, err)
		}
	}
	return p, nil
}

func parsePortNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return 0, fmt.Errorf("invalid port number %q", s)
	}
	return n, nil
}

// ParseVolume parses the compose short form "source:target[:ro|rw]".
func ParseVolume(s string) (VolumeMount, error) {
	parts := strings.Split(s, ":")
	var v VolumeMount
	switch len(parts) {
	case 3:
		switch parts[2] {
		case "ro":
			v.ReadOnly = true
		case "rw":
		default:
			return v, fmt.Errorf("workload: volume %q: mode must be ro or rw", s)
		}
		fallthrough
	case 2:
		v.Source, v.Target = parts[0], parts[1]
	default:
		return v, fmt.Errorf("workload: volume %q: want source:target[:mode]", s)
	}
	if v.Source == "" || !strings.HasPrefix(v.Target, "/") {
		return v, fmt.Errorf("workload: volume %q: target must be an absolute path", s)
	}
	return v, nil
}
