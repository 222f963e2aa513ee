package provision

import (
	"fmt"

	"github.com/kbukum/stackup/errors"
)

// Stage names the step of an execution that failed.
type Stage string

const (
	StageCheck  Stage = "check"
	StageApply  Stage = "apply"
	StageVerify Stage = "verify"
)

// VerificationError reports an action that ran without error but whose
// post-condition does not hold.
type VerificationError struct {
	Key      string
	Mismatch string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("provision: %s: verification failed: %s", e.Key, e.Mismatch)
}

// ErrorCode implements errors.Coder.
func (e *VerificationError) ErrorCode() errors.ErrorCode { return errors.ErrCodeTaskVerification }

// TaskError reports an action step that returned an error.
type TaskError struct {
	Key   string
	Stage Stage
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("provision: %s: %s: %v", e.Key, e.Stage, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// ErrorCode implements errors.Coder.
func (e *TaskError) ErrorCode() errors.ErrorCode { return errors.ErrCodeTaskFailed }
