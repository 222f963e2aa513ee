// Package errors provides unified error handling for stackup.
// It implements structured error types with machine-readable codes,
// retryable detection, and helpers that resolve the code of any error
// in a wrapped chain, including the typed orchestration errors raised
// by the dag, probe, provision and orchestrator packages.
package errors
