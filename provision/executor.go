package provision

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kbukum/stackup/logger"
)

// Status is the terminal state of one execution.
type Status int

const (
	Failed Status = iota
	Applied
	Skipped
)

func (s Status) String() string {
	switch s {
	case Applied:
		return "applied"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of Execute.
type Outcome struct {
	Status  Status
	Key     string
	Elapsed time.Duration
	// Shared is set when the outcome came from a concurrent execution with
	// the same key.
	Shared bool
	// Err is a *TaskError or *VerificationError when Status is Failed.
	Err error
}

// Succeeded reports whether the task reached a terminal success state.
func (o Outcome) Succeeded() bool { return o.Status != Failed }

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the executor logger.
func WithLogger(l *logger.Logger) ExecutorOption {
	return func(e *Executor) { e.log = l }
}

// Executor runs tasks. It is safe for concurrent use.
type Executor struct {
	group singleflight.Group
	log   *logger.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Nop()
	}
	e.log = e.log.WithComponent("provision")
	return e
}

// Execute checks, applies and verifies task. Calls with the same key that
// overlap in time share a single execution and its outcome.
func (e *Executor) Execute(ctx context.Context, task *Task) Outcome {
	key := task.Key()
	if task.Action == nil {
		return Outcome{Status: Failed, Key: key, Err: &TaskError{Key: key, Stage: StageCheck, Err: stderrors.New("no action")}}
	}

	v, _, shared := e.group.Do(key, func() (any, error) {
		return e.execute(ctx, key, task.Action), nil
	})
	out := v.(Outcome)
	out.Shared = shared
	return out
}

func (e *Executor) execute(ctx context.Context, key string, action Action) Outcome {
	start := time.Now()
	log := e.log.WithContext(ctx)
	fail := func(stage Stage, err error) Outcome {
		var verr *VerificationError
		if stderrors.As(err, &verr) {
			if verr.Key == "" {
				verr.Key = key
			}
		} else {
			err = &TaskError{Key: key, Stage: stage, Err: err}
		}
		return Outcome{Status: Failed, Key: key, Elapsed: time.Since(start), Err: err}
	}

	done, err := action.Applied(ctx)
	if err != nil {
		return fail(StageCheck, err)
	}
	if done {
		log.Debug("already applied", logger.Fields(logger.FieldKey, key))
		return Outcome{Status: Skipped, Key: key, Elapsed: time.Since(start)}
	}

	if err := action.Apply(ctx); err != nil {
		return fail(StageApply, err)
	}
	if err := action.Verify(ctx); err != nil {
		return fail(StageVerify, err)
	}

	log.Debug("applied", logger.Fields(logger.FieldKey, key))
	return Outcome{Status: Applied, Key: key, Elapsed: time.Since(start)}
}
