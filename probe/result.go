package probe

import (
	"fmt"
	"time"

	"github.com/kbukum/stackup/errors"
)

// Status is the answer of a probe.
type Status int

const (
	// NotReady means the service did not pass this attempt. It is not an error.
	NotReady Status = iota
	// Ready means the service can be used by dependents.
	Ready
	// Error means the service is considered broken or the wait was abandoned.
	Error
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case NotReady:
		return "not-ready"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the outcome of an attempt or of a whole wait.
type Result struct {
	Status Status
	// Reason describes why the service was not ready.
	Reason string
	// Unhealthy is set when the service answered and reported a failure,
	// as opposed to not answering at all.
	Unhealthy bool
	// Attempts is the number of attempts made so far.
	Attempts int
	// Elapsed is the time spent since the first attempt started.
	Elapsed time.Duration
	// Err is set when Status is Error.
	Err error
}

// Ready reports whether the result allows dependents to proceed.
func (r Result) Ready() bool { return r.Status == Ready }

// TimeoutError reports a dependency that stayed unreachable or slow for
// every attempt.
type TimeoutError struct {
	Kind       Kind
	Target     string
	Attempts   int
	LastReason string
	Elapsed    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("probe: %s %s not ready after %d attempts in %s: %s",
		e.Kind, e.Target, e.Attempts, e.Elapsed.Round(time.Millisecond), e.LastReason)
}

// ErrorCode implements errors.Coder.
func (e *TimeoutError) ErrorCode() errors.ErrorCode { return errors.ErrCodeProbeTimeout }

// FailureError reports a dependency whose last answer was an explicit
// unhealthy signal.
type FailureError struct {
	Kind       Kind
	Target     string
	Attempts   int
	LastReason string
	Elapsed    time.Duration
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("probe: %s %s unhealthy after %d attempts in %s: %s",
		e.Kind, e.Target, e.Attempts, e.Elapsed.Round(time.Millisecond), e.LastReason)
}

// ErrorCode implements errors.Coder.
func (e *FailureError) ErrorCode() errors.ErrorCode { return errors.ErrCodeProbeFailure }
