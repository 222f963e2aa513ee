package probe

import (
	"context"
	"errors"

	"github.com/kbukum/stackup/process"
)

// ExecChecker runs target through the shell and is ready on exit code 0.
// A non-zero exit is an unhealthy answer; a command that cannot be launched
// or is killed by the attempt timeout counts as unreachable.
type ExecChecker struct {
	// Env is appended to the inherited environment of the check command.
	Env []string
}

// NewExecChecker returns an ExecChecker.
func NewExecChecker() *ExecChecker {
	return &ExecChecker{}
}

// Check runs the command once.
func (c *ExecChecker) Check(ctx context.Context, target string) error {
	result, err := process.Run(ctx, process.Shell(target, c.Env...))
	if err == nil {
		return nil
	}
	if errors.Is(err, process.ErrNotStarted) || ctx.Err() != nil {
		return err
	}
	if summary := result.Summary(); summary != "" {
		return Unhealthy("exit code %d: %s", result.ExitCode, summary)
	}
	return Unhealthy("exit code %d", result.ExitCode)
}
