package bootstrap

import (
	"github.com/kbukum/stackup/errors"
	"github.com/kbukum/stackup/orchestrator"
)

// Process exit codes.
const (
	ExitSuccess = 0
	// ExitAborted means the run started and did not bring every node up,
	// or failed for a reason outside the stack definition.
	ExitAborted = 1
	// ExitStatic means the configuration or the graph is invalid and
	// nothing was started.
	ExitStatic = 2
)

// ExitCode maps the outcome of a command to the process exit code.
func ExitCode(res *orchestrator.Result, err error) int {
	switch {
	case err != nil && errors.IsStatic(err):
		return ExitStatic
	case err != nil:
		return ExitAborted
	case res != nil && !res.Succeeded():
		return ExitAborted
	default:
		return ExitSuccess
	}
}
