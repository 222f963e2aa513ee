package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeConnectionFailed indicates a failed connection to a service.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Graph definition errors. These are detected before anything starts.
const (
	// ErrCodeCycleDetected indicates the dependency graph contains a cycle.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"
	// ErrCodeUnknownDependency indicates a node depends on an undeclared node.
	ErrCodeUnknownDependency ErrorCode = "UNKNOWN_DEPENDENCY"
	// ErrCodeDuplicateNode indicates two nodes share the same id.
	ErrCodeDuplicateNode ErrorCode = "DUPLICATE_NODE"
)

// Readiness and provisioning errors, attributed to a single node.
const (
	// ErrCodeProbeTimeout indicates a dependency stayed slow or unreachable after all attempts.
	ErrCodeProbeTimeout ErrorCode = "PROBE_TIMEOUT"
	// ErrCodeProbeFailure indicates a dependency answered but reported itself unhealthy.
	ErrCodeProbeFailure ErrorCode = "PROBE_FAILURE"
	// ErrCodeLaunchFailed indicates a service start action failed.
	ErrCodeLaunchFailed ErrorCode = "LAUNCH_FAILED"
	// ErrCodeTaskFailed indicates a bootstrap action returned an error.
	ErrCodeTaskFailed ErrorCode = "TASK_FAILED"
	// ErrCodeTaskVerification indicates a bootstrap action ran but its post-condition is unmet.
	ErrCodeTaskVerification ErrorCode = "TASK_VERIFICATION"
)

// Run errors
const (
	// ErrCodeRunTimeout indicates the overall orchestration deadline expired.
	ErrCodeRunTimeout ErrorCode = "RUN_TIMEOUT"
	// ErrCodeRunCanceled indicates the run was canceled before completion.
	ErrCodeRunCanceled ErrorCode = "RUN_CANCELED"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeExternalService indicates an error from an external collaborator.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeConnectionFailed:   true,
	ErrCodeTimeout:            true,
	ErrCodeProbeTimeout:       true,
	ErrCodeProbeFailure:       true,
	ErrCodeExternalService:    true,
	ErrCodeRunTimeout:         true,
	ErrCodeInternal:           false,
}

var staticCodes = map[ErrorCode]bool{
	ErrCodeCycleDetected:     true,
	ErrCodeUnknownDependency: true,
	ErrCodeDuplicateNode:     true,
	ErrCodeInvalidInput:      true,
	ErrCodeMissingField:      true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
// For orchestration codes, retryable means re-running the whole stack may succeed
// once the dependency is fixed or has caught up.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// IsStaticCode reports whether the code describes a definition defect that no
// amount of re-running will fix.
func IsStaticCode(code ErrorCode) bool {
	return staticCodes[code]
}
