package orchestrator

import (
	"context"
	stderrors "errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/stackup/probe"
	"github.com/kbukum/stackup/provision"
	"github.com/kbukum/stackup/storage/memory"
)

const kindFake probe.Kind = "fake"

type check func(ctx context.Context) error

func ready(context.Context) error { return nil }

func unreachable(context.Context) error { return stderrors.New("connection refused") }

func unhealthy(context.Context) error { return probe.Unhealthy("HTTP 503") }

func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// fakeRegistry probes node ids through checks. Unknown targets are ready.
func fakeRegistry(checks map[string]check, extra ...func(*probe.Registry)) *probe.Registry {
	r := probe.NewRegistry()
	r.Register(kindFake, probe.CheckerFunc(func(ctx context.Context, target string) error {
		if c, ok := checks[target]; ok {
			return c(ctx)
		}
		return nil
	}))
	for _, fn := range extra {
		fn(r)
	}
	return r
}

func svc(id string, deps ...string) *Service {
	return &Service{ID: id, DependsOn: deps, Probe: probe.Spec{Kind: kindFake, Target: id}}
}

func fastConfig() Config {
	return Config{
		Timeout: 10 * time.Second,
		ProbeDefaults: probe.Spec{
			Timeout:       time.Second,
			RetryInterval: 5 * time.Millisecond,
			MaxAttempts:   3,
		},
	}
}

// stack declares the db, storage, bootstrap-bucket and app graph. storage
// is an in-memory store launched as a component.
func stack(t *testing.T, store *memory.Store) ([]*Service, []*provision.Task) {
	t.Helper()
	storage := &ComponentStarter{Component: store}
	services := []*Service{
		svc("db"),
		{
			ID:    "storage",
			Start: storage,
			Stop:  storage,
			Probe: probe.Spec{Kind: KindComponent, Target: store.Name()},
		},
		{
			ID:        "app",
			DependsOn: []string{"db", "storage", "bootstrap-bucket"},
			Start: StarterFunc(func(ctx context.Context, _ StartRequest) error {
				ok, err := store.BucketExists(ctx, "uploads")
				if err != nil {
					return err
				}
				if !ok {
					t.Error("app started before its bucket existed")
				}
				return nil
			}),
			Probe: probe.Spec{Kind: kindFake, Target: "app"},
		},
	}
	tasks := []*provision.Task{{
		ID:        "bootstrap-bucket",
		DependsOn: []string{"storage"},
		Action:    &provision.BucketAction{Admin: store, Bucket: "uploads"},
	}}
	return services, tasks
}

func withComponents(store *memory.Store) func(*probe.Registry) {
	return func(r *probe.Registry) { r.Register(KindComponent, ComponentChecker(store)) }
}

func mustNew(t *testing.T, services []*Service, tasks []*provision.Task, cfg Config, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := New(services, tasks, cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func assertStates(t *testing.T, res *Result, want map[string]State) {
	t.Helper()
	for id, s := range want {
		if got := res.State(id); got != s {
			t.Errorf("state(%s) = %s, want %s", id, got, s)
		}
	}
}

func assertBefore(t *testing.T, order []string, first, second string) {
	t.Helper()
	i, j := slices.Index(order, first), slices.Index(order, second)
	if i < 0 || j < 0 || i > j {
		t.Errorf("expected %s to start before %s, order %v", first, second, order)
	}
}

// recorder collects names in call order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) stopper(name string) Stopper {
	return StopperFunc(func(context.Context) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, name)
		return nil
	})
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}
