package errors

import (
	stderrors "errors"
)

// Coder is implemented by errors that carry a machine-readable code.
// The typed errors of the dag, probe, provision and orchestrator packages
// implement it so callers can classify failures without importing them.
type Coder interface {
	ErrorCode() ErrorCode
}

// CodeOf returns the code of the outermost error in the chain that has one.
// Errors without a code resolve to ErrCodeInternal; nil resolves to "".
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var c Coder
	if stderrors.As(err, &c) {
		return c.ErrorCode()
	}
	return ErrCodeInternal
}

// IsRetryable reports whether the error chain carries a retryable code.
func IsRetryable(err error) bool {
	return IsRetryableCode(CodeOf(err))
}

// IsStatic reports whether the error chain describes a definition defect.
func IsStatic(err error) bool {
	return IsStaticCode(CodeOf(err))
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
