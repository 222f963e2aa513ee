package dag

import (
	"fmt"
	"strings"

	"github.com/kbukum/stackup/errors"
)

// DuplicateNodeError is returned when two nodes share an id.
type DuplicateNodeError struct {
	ID string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("dag: duplicate node id %q", e.ID)
}

// ErrorCode implements errors.Coder.
func (e *DuplicateNodeError) ErrorCode() errors.ErrorCode { return errors.ErrCodeDuplicateNode }

// UnknownDependencyError is returned when a node depends on an id that is not
// declared in the graph.
type UnknownDependencyError struct {
	From    string
	Missing string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("dag: node %q depends on unknown node %q", e.From, e.Missing)
}

// ErrorCode implements errors.Coder.
func (e *UnknownDependencyError) ErrorCode() errors.ErrorCode {
	return errors.ErrCodeUnknownDependency
}

// CycleError is returned when the dependency relation contains a cycle.
// Cycle is a closed path: the first id is repeated at the end and every
// consecutive pair (a, b) means "a depends on b".
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return "dag: dependency cycle: " + strings.Join(e.Cycle, " -> ")
}

// ErrorCode implements errors.Coder.
func (e *CycleError) ErrorCode() errors.ErrorCode { return errors.ErrCodeCycleDetected }
