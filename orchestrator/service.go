package orchestrator

import (
	"context"

	"github.com/kbukum/stackup/probe"
)

// Kind tells services and tasks apart in reports.
type Kind string

const (
	KindService Kind = "service"
	KindTask    Kind = "task"
)

// RestartPolicy is forwarded to the launcher. The orchestrator never
// restarts anything itself.
type RestartPolicy string

const (
	RestartNever     RestartPolicy = "never"
	RestartOnFailure RestartPolicy = "on-failure"
	RestartAlways    RestartPolicy = "always"
)

// Valid reports whether p is a known policy. The empty policy is valid and
// means RestartNever.
func (p RestartPolicy) Valid() bool {
	switch p {
	case "", RestartNever, RestartOnFailure, RestartAlways:
		return true
	}
	return false
}

// StartRequest is what a Starter receives.
type StartRequest struct {
	RunID         string
	ServiceID     string
	RestartPolicy RestartPolicy
}

// Starter launches a service. Returning nil means the launch was accepted,
// not that the service is ready.
type Starter interface {
	Start(ctx context.Context, req StartRequest) error
}

// StarterFunc adapts a function to Starter.
type StarterFunc func(ctx context.Context, req StartRequest) error

// Start calls f.
func (f StarterFunc) Start(ctx context.Context, req StartRequest) error { return f(ctx, req) }

// Stopper stops a service.
type Stopper interface {
	Stop(ctx context.Context) error
}

// StopperFunc adapts a function to Stopper.
type StopperFunc func(ctx context.Context) error

// Stop calls f.
func (f StopperFunc) Stop(ctx context.Context) error { return f(ctx) }

// Service is a long-running node of the graph.
type Service struct {
	ID        string
	DependsOn []string
	// Start launches the service. Nil means it is launched externally and
	// only its readiness is awaited.
	Start Starter
	// Stop is used by Shutdown and Down. Optional.
	Stop          Stopper
	Probe         probe.Spec
	RestartPolicy RestartPolicy
}

// NodeID implements dag.Node.
func (s *Service) NodeID() string { return s.ID }

// Dependencies implements dag.Node.
func (s *Service) Dependencies() []string { return s.DependsOn }

func (s *Service) restartPolicy() RestartPolicy {
	if s.RestartPolicy == "" {
		return RestartNever
	}
	return s.RestartPolicy
}
