package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/stackup/process"
)

// CommandAction provisions through shell commands, the way an init job runs
// a client CLI. CheckCmd exits 0 when the end state is present and non-zero
// otherwise; when empty the action always applies. An empty VerifyCmd
// re-runs CheckCmd, and when both are empty a successful ApplyCmd is trusted.
type CommandAction struct {
	CheckCmd  string
	ApplyCmd  string
	VerifyCmd string
	Env       []string
}

// exitZero runs line and reports whether it exited 0 plus the output summary
// of a non-zero exit. Failing to launch is an error, a non-zero exit is not.
func (a *CommandAction) exitZero(ctx context.Context, line string) (bool, string, error) {
	result, err := process.Run(ctx, process.Shell(line, a.Env...))
	if err == nil {
		return true, "", nil
	}
	if errors.Is(err, process.ErrNotStarted) || ctx.Err() != nil {
		return false, "", err
	}
	return false, result.Summary(), nil
}

func (a *CommandAction) Applied(ctx context.Context) (bool, error) {
	if a.CheckCmd == "" {
		return false, nil
	}
	ok, _, err := a.exitZero(ctx, a.CheckCmd)
	return ok, err
}

func (a *CommandAction) Apply(ctx context.Context) error {
	result, err := process.Run(ctx, process.Shell(a.ApplyCmd, a.Env...))
	if err != nil {
		if summary := result.Summary(); summary != "" {
			return fmt.Errorf("%w: %s", err, summary)
		}
		return err
	}
	return nil
}

func (a *CommandAction) Verify(ctx context.Context) error {
	line := a.VerifyCmd
	if line == "" {
		line = a.CheckCmd
	}
	if line == "" {
		return nil
	}
	ok, summary, err := a.exitZero(ctx, line)
	if err != nil {
		return err
	}
	if !ok {
		if summary == "" {
			summary = "non-zero exit"
		}
		return &VerificationError{Mismatch: fmt.Sprintf("%q: %s", line, summary)}
	}
	return nil
}
