package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/stackup/logger"
)

// DefaultStopTimeout bounds each component's Stop call.
const DefaultStopTimeout = 10 * time.Second

// Registry starts components one at a time and stops the started ones in
// reverse start order. Start order is the order in which Start calls
// succeeded, which may differ from registration order when components are
// started concurrently.
type Registry struct {
	log         *logger.Logger
	stopTimeout time.Duration

	mu      sync.Mutex
	started []Component
	lookup  map[string]Component
}

// NewRegistry creates a new component registry. A nil logger disables logging.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		log:         log.WithComponent("registry"),
		stopTimeout: DefaultStopTimeout,
		lookup:      make(map[string]Component),
	}
}

// SetStopTimeout overrides the per-component stop timeout.
func (r *Registry) SetStopTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimeout = d
}

// Start starts c and records it for shutdown. Names must be unique among
// running components. Start may be called concurrently.
func (r *Registry) Start(ctx context.Context, c Component) error {
	name := c.Name()

	r.mu.Lock()
	if _, exists := r.lookup[name]; exists {
		r.mu.Unlock()
		return fmt.Errorf("component %s already started", name)
	}
	r.mu.Unlock()

	r.log.Debug("Starting component", logger.Fields(logger.FieldNode, name))
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.lookup[name]; exists {
		return fmt.Errorf("component %s already started", name)
	}
	r.started = append(r.started, c)
	r.lookup[name] = c
	return nil
}

// StopAll stops every started component in reverse start order. It keeps
// going after a failed stop and returns all failures joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	started := r.started
	r.started = nil
	r.lookup = make(map[string]Component)
	timeout := r.stopTimeout
	r.mu.Unlock()

	if len(started) == 0 {
		return nil
	}
	r.log.Info("Stopping components", logger.Fields("count", len(started)))

	var errs []error
	for i := len(started) - 1; i >= 0; i-- {
		c := started[i]
		name := c.Name()

		stopCtx, cancel := context.WithTimeout(ctx, timeout)
		err := c.Stop(stopCtx)
		cancel()

		if err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", name, err))
			r.log.Error("Component stop failed", logger.Fields(logger.FieldNode, name, logger.FieldError, err.Error()))
			continue
		}
		r.log.Info("Component stopped", logger.Fields(logger.FieldNode, name))
	}

	return errors.Join(errs...)
}

// HealthAll returns health status for all started components in start order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.Lock()
	started := append([]Component(nil), r.started...)
	r.mu.Unlock()

	results := make([]Health, 0, len(started))
	for _, c := range started {
		results = append(results, c.Health(ctx))
	}
	return results
}

// Get returns a started component by name, or nil if not found.
func (r *Registry) Get(name string) Component {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup[name]
}

// Started returns the names of started components in start order.
func (r *Registry) Started() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.started))
	for _, c := range r.started {
		names = append(names, c.Name())
	}
	return names
}
