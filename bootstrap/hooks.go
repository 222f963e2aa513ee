package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback that runs around a command. Telemetry
// setup and flushing are registered this way.
type Hook func(ctx context.Context) error

// OnStart registers hooks that run before the command.
func (a *App) OnStart(hooks ...Hook) {
	a.onStart = append(a.onStart, hooks...)
}

// OnStop registers hooks that run after the command, whether or not it
// succeeded, within the graceful timeout.
func (a *App) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

// runHooks executes a slice of hooks sequentially, returning the first error.
func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}
