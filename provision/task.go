package provision

import (
	"context"
)

// Action is an idempotent provisioning step against an external service.
type Action interface {
	// Applied reports whether the desired end state is already in place.
	Applied(ctx context.Context) (bool, error)
	// Apply produces the desired end state.
	Apply(ctx context.Context) error
	// Verify confirms the end state after Apply. A non-nil error that is not
	// a *VerificationError is treated as a failed check, not a mismatch.
	Verify(ctx context.Context) error
}

// Task is a bootstrap node of the startup graph.
type Task struct {
	ID        string
	DependsOn []string
	Action    Action
	// IdempotencyKey identifies the end state Action produces. Tasks sharing
	// a key are executed at most once at a time. Defaults to ID.
	IdempotencyKey string
}

// NodeID implements dag.Node.
func (t *Task) NodeID() string { return t.ID }

// Dependencies implements dag.Node.
func (t *Task) Dependencies() []string { return t.DependsOn }

// Key returns the idempotency key, falling back to the task id.
func (t *Task) Key() string {
	if t.IdempotencyKey != "" {
		return t.IdempotencyKey
	}
	return t.ID
}

// Funcs adapts plain functions to Action. A nil Verify re-runs Applied and
// reports a mismatch when it returns false.
type Funcs struct {
	AppliedFunc func(ctx context.Context) (bool, error)
	ApplyFunc   func(ctx context.Context) error
	VerifyFunc  func(ctx context.Context) error
}

func (f Funcs) Applied(ctx context.Context) (bool, error) {
	if f.AppliedFunc == nil {
		return false, nil
	}
	return f.AppliedFunc(ctx)
}

func (f Funcs) Apply(ctx context.Context) error {
	if f.ApplyFunc == nil {
		return nil
	}
	return f.ApplyFunc(ctx)
}

func (f Funcs) Verify(ctx context.Context) error {
	if f.VerifyFunc != nil {
		return f.VerifyFunc(ctx)
	}
	ok, err := f.Applied(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return &VerificationError{Mismatch: "end state not present after apply"}
	}
	return nil
}
