package orchestrator

import (
	"fmt"
	"sync"
	"time"
)

// State is the run-time state of one node.
type State string

const (
	StatePending  State = "pending"
	StateStarting State = "starting"
	StateReady    State = "ready"
	StateRunning  State = "running"
	StateApplied  State = "applied"
	StateSkipped  State = "skipped"
	StateFailed   State = "failed"
	// StateCanceled marks a node that was in flight when the run aborted.
	StateCanceled State = "canceled"
)

// Succeeded reports whether dependents may proceed past s.
func (s State) Succeeded() bool {
	return s == StateReady || s == StateApplied || s == StateSkipped
}

// Terminal reports whether s is final for this run.
func (s State) Terminal() bool {
	return s.Succeeded() || s == StateFailed || s == StateCanceled
}

// legal lists the allowed moves per node kind.
var legal = map[Kind]map[State][]State{
	KindService: {
		StatePending:  {StateStarting},
		StateStarting: {StateReady, StateFailed, StateCanceled},
	},
	KindTask: {
		StatePending: {StateRunning},
		StateRunning: {StateApplied, StateSkipped, StateFailed, StateCanceled},
	},
}

// IllegalTransitionError is returned by the state table for a move that is
// not allowed or whose source state does not match.
type IllegalTransitionError struct {
	NodeID  string
	Current State
	From    State
	To      State
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("orchestrator: illegal transition of %s from %s to %s (current %s)",
		e.NodeID, e.From, e.To, e.Current)
}

type entry struct {
	kind     Kind
	state    State
	started  time.Time
	finished time.Time
	attempts int
	detail   string
}

// stateTable is the only mutable state shared between node goroutines.
type stateTable struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   []string
}

func newStateTable(kinds map[string]Kind) *stateTable {
	t := &stateTable{entries: make(map[string]*entry, len(kinds))}
	for id, kind := range kinds {
		t.entries[id] = &entry{kind: kind, state: StatePending}
	}
	return t
}

// transition moves id from one state to another. Leaving pending records
// the node in the start order.
func (t *stateTable) transition(id string, from, to State) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return fmt.Errorf("orchestrator: unknown node %q", id)
	}
	if e.state != from || !allowed(e.kind, from, to) {
		return &IllegalTransitionError{NodeID: id, Current: e.state, From: from, To: to}
	}

	e.state = to
	now := time.Now()
	if from == StatePending {
		e.started = now
		t.order = append(t.order, id)
	}
	if to.Terminal() {
		e.finished = now
	}
	return nil
}

func allowed(kind Kind, from, to State) bool {
	for _, s := range legal[kind][from] {
		if s == to {
			return true
		}
	}
	return false
}

// annotate records probe attempts and a human-readable detail for id.
func (t *stateTable) annotate(id string, attempts int, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok {
		if attempts > 0 {
			e.attempts = attempts
		}
		if detail != "" {
			e.detail = detail
		}
	}
}

func (t *stateTable) state(id string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok {
		return e.state
	}
	return ""
}

// elapsed returns the time id has spent outside pending.
func (t *stateTable) elapsed(id string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries[id].elapsedLocked()
}

func (e *entry) elapsedLocked() time.Duration {
	switch {
	case e.started.IsZero():
		return 0
	case e.finished.IsZero():
		return time.Since(e.started)
	default:
		return e.finished.Sub(e.started)
	}
}

// snapshot copies the table for the result.
func (t *stateTable) snapshot() (map[string]entry, []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]entry, len(t.entries))
	for id, e := range t.entries {
		out[id] = *e
	}
	return out, append([]string(nil), t.order...)
}
