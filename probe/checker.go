package probe

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Checker performs one bounded readiness attempt against target. A nil
// error means ready. An error wrapping *UnhealthyError means the target
// answered and reported a failure; any other error means it could not be
// reached in time.
type Checker interface {
	Check(ctx context.Context, target string) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, target string) error

// Check calls f.
func (f CheckerFunc) Check(ctx context.Context, target string) error { return f(ctx, target) }

// UnhealthyError is returned by checkers when the target answered with an
// explicit failure.
type UnhealthyError struct {
	Reason string
}

func (e *UnhealthyError) Error() string { return e.Reason }

// Unhealthy builds an *UnhealthyError.
func Unhealthy(format string, args ...any) error {
	return &UnhealthyError{Reason: fmt.Sprintf(format, args...)}
}

// IsUnhealthy reports whether err carries an *UnhealthyError.
func IsUnhealthy(err error) bool {
	var u *UnhealthyError
	return errors.As(err, &u)
}

// Registry maps kinds to checkers. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	checkers map[Kind]Checker
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{checkers: make(map[Kind]Checker)}
}

// DefaultRegistry returns a registry holding every built-in checker.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindTCP, NewTCPChecker())
	r.Register(KindHTTP, NewHTTPChecker())
	r.Register(KindExec, NewExecChecker())
	r.Register(KindPostgres, NewPostgresChecker())
	r.Register(KindRedis, NewRedisChecker())
	return r
}

// Register adds or replaces the checker for kind.
func (r *Registry) Register(kind Kind, c Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[kind] = c
}

// Lookup returns the checker for kind.
func (r *Registry) Lookup(kind Kind) (Checker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.checkers[kind]
	return c, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.checkers))
	for k := range r.checkers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
