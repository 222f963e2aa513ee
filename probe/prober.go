package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/stackup/resilience"
)

// errNotReady signals the retry loop that another attempt is wanted.
var errNotReady = errors.New("not ready")

// Observer receives every NotReady attempt made by Await.
type Observer func(spec Spec, attempt Result)

// Option configures a Prober.
type Option func(*Prober)

// WithRegistry replaces the default checker registry.
func WithRegistry(r *Registry) Option {
	return func(p *Prober) { p.registry = r }
}

// WithObserver installs an observer for NotReady attempts.
func WithObserver(o Observer) Option {
	return func(p *Prober) { p.observer = o }
}

// Prober runs readiness checks. It holds no per-service state and is safe
// for concurrent use.
type Prober struct {
	registry *Registry
	observer Observer
}

// New creates a Prober backed by the built-in checkers unless a registry is
// supplied.
func New(opts ...Option) *Prober {
	p := &Prober{}
	for _, opt := range opts {
		opt(p)
	}
	if p.registry == nil {
		p.registry = DefaultRegistry()
	}
	return p
}

// Registry returns the checker registry in use.
func (p *Prober) Registry() *Registry { return p.registry }

// Validate checks spec and that its kind has a registered checker.
func (p *Prober) Validate(spec Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if _, ok := p.registry.Lookup(spec.Kind); !ok {
		return fmt.Errorf("probe: unknown kind %q (registered: %v)", spec.Kind, p.registry.Kinds())
	}
	return nil
}

// Attempt performs a single check bounded by spec.Timeout. It returns Ready
// or NotReady, and Error only when spec cannot be checked at all.
func (p *Prober) Attempt(ctx context.Context, spec Spec) Result {
	start := time.Now()

	checker, ok := p.registry.Lookup(spec.Kind)
	if !ok {
		return Result{
			Status: Error,
			Reason: "unknown probe kind",
			Err:    fmt.Errorf("probe: unknown kind %q", spec.Kind),
		}
	}

	attemptCtx := ctx
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	err := checker.Check(attemptCtx, spec.Target)
	elapsed := time.Since(start)
	if err == nil {
		return Result{Status: Ready, Attempts: 1, Elapsed: elapsed}
	}

	reason := err.Error()
	if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		reason = fmt.Sprintf("timed out after %s", spec.Timeout)
	}
	return Result{
		Status:    NotReady,
		Reason:    reason,
		Unhealthy: IsUnhealthy(err),
		Attempts:  1,
		Elapsed:   elapsed,
	}
}

// Await polls until the service is ready, the attempts are exhausted or ctx
// is done. Exhaustion yields Error with a *TimeoutError or *FailureError
// depending on the last attempt. Cancellation yields Error wrapping the
// context error.
func (p *Prober) Await(ctx context.Context, spec Spec) Result {
	start := time.Now()
	var last Result

	cfg := resilience.FixedIntervalConfig(spec.MaxAttempts, spec.RetryInterval)
	cfg.RetryIf = func(error) bool { return ctx.Err() == nil }

	_, err := resilience.Retry(ctx, cfg, func(ctx context.Context, attempt int) (struct{}, error) {
		last = p.Attempt(ctx, spec)
		last.Attempts = attempt
		last.Elapsed = time.Since(start)

		switch last.Status {
		case Ready:
			return struct{}{}, nil
		case Error:
			return struct{}{}, last.Err
		}
		if p.observer != nil {
			p.observer(spec, last)
		}
		return struct{}{}, errNotReady
	})
	elapsed := time.Since(start)

	if err == nil {
		return Result{Status: Ready, Attempts: last.Attempts, Elapsed: elapsed}
	}
	if last.Status == Error {
		last.Elapsed = elapsed
		return last
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{
			Status:    Error,
			Reason:    last.Reason,
			Unhealthy: last.Unhealthy,
			Attempts:  last.Attempts,
			Elapsed:   elapsed,
			Err: fmt.Errorf("probe: %s %s abandoned after %d attempts (last: %s): %w",
				spec.Kind, spec.Target, last.Attempts, reasonOrNone(last.Reason), ctxErr),
		}
	}

	var cause error
	if last.Unhealthy {
		cause = &FailureError{Kind: spec.Kind, Target: spec.Target, Attempts: last.Attempts, LastReason: last.Reason, Elapsed: elapsed}
	} else {
		cause = &TimeoutError{Kind: spec.Kind, Target: spec.Target, Attempts: last.Attempts, LastReason: last.Reason, Elapsed: elapsed}
	}
	return Result{
		Status:    Error,
		Reason:    last.Reason,
		Unhealthy: last.Unhealthy,
		Attempts:  last.Attempts,
		Elapsed:   elapsed,
		Err:       cause,
	}
}

func reasonOrNone(reason string) string {
	if reason == "" {
		return "none"
	}
	return reason
}
