package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/stackup/errors"
)

// NodeError attributes a run-time failure to a node.
type NodeError struct {
	NodeID  string
	Kind    Kind
	Elapsed time.Duration
	Err     error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s %s failed after %s: %v", e.Kind, e.NodeID, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// LaunchError reports a start action that returned an error.
type LaunchError struct {
	ServiceID string
	Err       error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.ServiceID, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ErrorCode implements errors.Coder.
func (e *LaunchError) ErrorCode() errors.ErrorCode { return errors.ErrCodeLaunchFailed }

// RunTimeoutError reports that the overall deadline expired.
type RunTimeoutError struct {
	Timeout time.Duration
	// InFlight lists the nodes that were starting or running, in start order.
	InFlight []string
	// Pending lists the nodes that never started.
	Pending []string
}

func (e *RunTimeoutError) Error() string {
	msg := fmt.Sprintf("run deadline of %s exceeded", e.Timeout)
	if len(e.InFlight) > 0 {
		msg += " while waiting on " + strings.Join(e.InFlight, ", ")
	}
	if len(e.Pending) > 0 {
		msg += fmt.Sprintf(" (%d not started)", len(e.Pending))
	}
	return msg
}

// Unwrap lets errors.Is match context.DeadlineExceeded.
func (e *RunTimeoutError) Unwrap() error { return context.DeadlineExceeded }

// ErrorCode implements errors.Coder.
func (e *RunTimeoutError) ErrorCode() errors.ErrorCode { return errors.ErrCodeRunTimeout }
