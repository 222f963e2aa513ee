package orchestrator

import (
	"time"
)

// Outcome is the terminal state of a run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeAborted Outcome = "aborted"
)

// NodeReport describes one node at the end of a run.
type NodeReport struct {
	ID    string
	Kind  Kind
	State State
	// Attempts is the number of readiness attempts of a service.
	Attempts int
	Elapsed  time.Duration
	// Detail is the failure reason, the skip reason or what a pending node
	// was waiting on.
	Detail string
}

// Result is the outcome of one run. It is not modified after Run returns.
type Result struct {
	RunID   string
	Outcome Outcome
	// FailedNodeID names the node that blocked the run. Empty on success.
	FailedNodeID string
	// Cause is the first failure, a *NodeError or a *RunTimeoutError.
	Cause error
	// Failures lists every failure in the order they happened. In
	// best-effort mode it may hold more than one.
	Failures []error
	States   map[string]State
	// Nodes lists every node in topological order.
	Nodes []NodeReport
	// Order is the observed start order.
	Order    []string
	Duration time.Duration
}

// Succeeded reports whether every node reached a terminal success state.
func (r *Result) Succeeded() bool { return r.Outcome == OutcomeSuccess }

// State returns the final state of id.
func (r *Result) State(id string) State { return r.States[id] }

// Node returns the report of id.
func (r *Result) Node(id string) (NodeReport, bool) {
	for _, n := range r.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeReport{}, false
}
