package orchestrator

import (
	"context"
	"fmt"
	"slices"

	"github.com/kbukum/stackup/component"
	"github.com/kbukum/stackup/probe"
	"github.com/kbukum/stackup/process"
)

// Environment variables passed to launch commands.
const (
	EnvRunID         = "STACKUP_RUN_ID"
	EnvServiceID     = "STACKUP_SERVICE"
	EnvRestartPolicy = "STACKUP_RESTART_POLICY"
)

// CommandStarter runs a launch command to completion, for example
// "docker compose up -d db". The command must return once the service is
// launched; readiness is checked by the probe.
type CommandStarter struct {
	Command process.Command
}

// Start runs the command with the request in its environment.
func (s *CommandStarter) Start(ctx context.Context, req StartRequest) error {
	cmd := s.Command
	cmd.Env = append(slices.Clone(cmd.Env),
		EnvRunID+"="+req.RunID,
		EnvServiceID+"="+req.ServiceID,
		EnvRestartPolicy+"="+string(req.RestartPolicy),
	)
	return runCommand(ctx, cmd)
}

// CommandStopper runs a stop command to completion.
type CommandStopper struct {
	Command process.Command
}

// Stop runs the command.
func (s *CommandStopper) Stop(ctx context.Context) error {
	return runCommand(ctx, s.Command)
}

func runCommand(ctx context.Context, cmd process.Command) error {
	result, err := process.Run(ctx, cmd)
	if err != nil {
		if summary := result.Summary(); summary != "" {
			return fmt.Errorf("%s: %w: %s", cmd, err, summary)
		}
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

// ComponentStarter runs an in-process component as a service. It is both
// the Start and the Stop action.
type ComponentStarter struct {
	Component component.Component
}

// Start starts the component.
func (s *ComponentStarter) Start(ctx context.Context, _ StartRequest) error {
	return s.Component.Start(ctx)
}

// Stop stops the component.
func (s *ComponentStarter) Stop(ctx context.Context) error {
	return s.Component.Stop(ctx)
}

// KindComponent probes in-process components by name.
const KindComponent probe.Kind = "component"

// ComponentChecker returns a checker that is ready when the component whose
// name is the probe target reports healthy.
func ComponentChecker(components ...component.Component) probe.Checker {
	byName := make(map[string]component.Component, len(components))
	for _, c := range components {
		byName[c.Name()] = c
	}
	return probe.CheckerFunc(func(ctx context.Context, target string) error {
		c, ok := byName[target]
		if !ok {
			return probe.Unhealthy("unknown component %q", target)
		}
		h := c.Health(ctx)
		if h.Status == component.StatusHealthy {
			return nil
		}
		if h.Message != "" {
			return fmt.Errorf("%s: %s", h.Status, h.Message)
		}
		return fmt.Errorf("%s", h.Status)
	})
}
