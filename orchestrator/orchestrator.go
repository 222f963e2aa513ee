package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/stackup/component"
	"github.com/kbukum/stackup/config"
	"github.com/kbukum/stackup/dag"
	"github.com/kbukum/stackup/errors"
	"github.com/kbukum/stackup/logger"
	"github.com/kbukum/stackup/observability"
	"github.com/kbukum/stackup/probe"
	"github.com/kbukum/stackup/provision"
	"github.com/kbukum/stackup/resilience"
)

// errAborted is the cancellation cause after a fail-fast failure.
var errAborted = stderrors.New("run aborted after node failure")

// Config holds the settings of a run.
type Config struct {
	// Timeout is the overall deadline. Zero means none.
	Timeout time.Duration
	// BestEffort blocks only the dependents of a failed node instead of
	// canceling the whole run.
	BestEffort bool
	// MaxParallel bounds concurrent node work. Zero means the graph width.
	MaxParallel int
	// ProbeDefaults fills the zero fields of every service probe.
	ProbeDefaults probe.Spec
}

// ConfigFromRun converts loaded run settings.
func ConfigFromRun(r config.RunConfig) Config {
	return Config{
		Timeout:     r.Timeout,
		BestEffort:  r.BestEffort,
		MaxParallel: r.MaxParallel,
		ProbeDefaults: probe.Spec{
			Timeout:       r.ProbeTimeout,
			RetryInterval: r.RetryInterval,
			MaxAttempts:   r.MaxAttempts,
		},
	}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithProbeRegistry replaces the built-in readiness checkers.
func WithProbeRegistry(r *probe.Registry) Option {
	return func(o *Orchestrator) { o.probes = r }
}

// WithExecutor sets the task executor.
func WithExecutor(e *provision.Executor) Option {
	return func(o *Orchestrator) { o.executor = e }
}

// WithMetrics records node and run metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// Orchestrator drives a validated graph. Run may be called more than once;
// each call has its own state table.
type Orchestrator struct {
	cfg      Config
	graph    *dag.Graph
	services map[string]*Service
	tasks    map[string]*provision.Task
	kinds    map[string]Kind
	specs    map[string]probe.Spec

	log      *logger.Logger
	probes   *probe.Registry
	executor *provision.Executor
	metrics  *observability.Metrics
	started  *component.Registry
}

// New validates the declarations and builds the graph. Services are
// declared before tasks. Every error returned is a static defect and
// nothing has been started.
func New(services []*Service, tasks []*provision.Task, cfg Config, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		cfg:      cfg,
		services: make(map[string]*Service, len(services)),
		tasks:    make(map[string]*provision.Task, len(tasks)),
		kinds:    make(map[string]Kind, len(services)+len(tasks)),
		specs:    make(map[string]probe.Spec, len(services)),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Nop()
	}
	o.log = o.log.WithComponent("orchestrator")
	if o.probes == nil {
		o.probes = probe.DefaultRegistry()
	}
	if o.executor == nil {
		o.executor = provision.NewExecutor(provision.WithLogger(o.log))
	}
	o.started = component.NewRegistry(o.log)

	validator := probe.New(probe.WithRegistry(o.probes))
	nodes := make([]dag.Node, 0, len(services)+len(tasks))

	for _, svc := range services {
		if svc.ID == "" {
			return nil, errors.MissingField("service.id")
		}
		if !svc.RestartPolicy.Valid() {
			return nil, errors.InvalidInput("services."+svc.ID+".restart",
				fmt.Sprintf("unknown restart policy %q", svc.RestartPolicy))
		}
		spec := svc.Probe.WithDefaults(cfg.ProbeDefaults)
		if err := validator.Validate(spec); err != nil {
			return nil, errors.InvalidInput("services."+svc.ID+".probe", err.Error()).WithCause(err)
		}
		o.specs[svc.ID] = spec
		o.services[svc.ID] = svc
		o.kinds[svc.ID] = KindService
		nodes = append(nodes, svc)
	}
	for _, task := range tasks {
		if task.ID == "" {
			return nil, errors.MissingField("task.id")
		}
		if task.Action == nil {
			return nil, errors.InvalidInput("tasks."+task.ID+".action", "no action")
		}
		o.tasks[task.ID] = task
		o.kinds[task.ID] = KindTask
		nodes = append(nodes, task)
	}

	g, err := dag.Build(nodes)
	if err != nil {
		return nil, err
	}
	o.graph = g
	return o, nil
}

// Graph returns the validated graph.
func (o *Orchestrator) Graph() *dag.Graph { return o.graph }

// run is the state of one Run call.
type run struct {
	o        *Orchestrator
	id       string
	log      *logger.Logger
	table    *stateTable
	done     map[string]chan struct{}
	bulkhead *resilience.Bulkhead
	abort    context.CancelCauseFunc

	mu       sync.Mutex
	failures []error
}

// Run brings the graph up and returns its outcome. It returns once every
// node goroutine has finished, which after an abort or a deadline means
// in-flight probes and actions have observed the cancellation.
func (o *Orchestrator) Run(ctx context.Context) *Result {
	start := time.Now()
	runID := uuid.NewString()
	ctx = logger.ContextWithRunID(ctx, runID)

	ctx, span := observability.StartSpan(ctx, observability.SpanRun,
		trace.WithAttributes(attribute.String(observability.AttrRunID, runID)))
	defer span.End()

	runCtx := ctx
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}
	runCtx, abort := context.WithCancelCause(runCtx)
	defer abort(nil)

	parallel := o.cfg.MaxParallel
	if parallel <= 0 {
		parallel = o.graph.Width()
	}
	r := &run{
		o:     o,
		id:    runID,
		log:   o.log.WithContext(ctx),
		table: newStateTable(o.kinds),
		done:  make(map[string]chan struct{}, o.graph.Len()),
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "orchestrator",
			MaxConcurrent: parallel,
			MaxWait:       resilience.WaitUntilDone,
		}),
		abort: abort,
	}
	for _, id := range o.graph.IDs() {
		r.done[id] = make(chan struct{})
	}

	r.log.Info("run started", logger.Fields(
		"nodes", o.graph.Len(),
		"parallel", parallel,
		"best_effort", o.cfg.BestEffort,
		"timeout", o.cfg.Timeout.String(),
	))

	var wg sync.WaitGroup
	for _, id := range o.graph.TopoOrder() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.drive(runCtx, id)
		}()
	}
	wg.Wait()

	result := r.result(runCtx, time.Since(start))

	span.SetAttributes(attribute.String(observability.AttrOutcome, string(result.Outcome)))
	if result.Cause != nil {
		span.RecordError(result.Cause)
		span.SetStatus(codes.Error, result.Cause.Error())
	}
	if o.metrics != nil {
		o.metrics.RecordRun(ctx, string(result.Outcome), result.Duration)
	}

	if result.Succeeded() {
		r.log.Info("run succeeded", logger.DurationFields("run", result.Duration))
	} else {
		r.log.Error("run aborted", logger.MergeWithDuration(logger.Fields(
			logger.FieldNode, result.FailedNodeID,
			logger.FieldOutcome, string(result.Outcome),
			"code", string(errors.CodeOf(result.Cause)),
			logger.FieldError, result.Cause.Error(),
		), result.Duration))
	}
	return result
}

// drive waits for the dependencies of id and runs it when all of them
// succeeded. Otherwise the node stays pending.
func (r *run) drive(ctx context.Context, id string) {
	defer close(r.done[id])

	for _, dep := range r.o.graph.Dependencies(id) {
		select {
		case <-r.done[dep]:
		case <-ctx.Done():
			return
		}
		if !r.table.state(dep).Succeeded() {
			return
		}
	}

	// Slots are taken only once dependencies are done, so a node never
	// holds a slot while waiting on another node.
	_ = r.bulkhead.Execute(ctx, func() error {
		switch r.o.kinds[id] {
		case KindService:
			r.runService(ctx, id)
		case KindTask:
			r.runTask(ctx, id)
		}
		return nil
	})
}

func (r *run) runService(ctx context.Context, id string) {
	svc := r.o.services[id]
	if !r.move(id, StatePending, StateStarting) {
		return
	}
	ctx = logger.ContextWithNode(ctx, id)
	log := r.log.WithContext(ctx)
	log.Info("service starting", logger.Fields(logger.FieldNodeKind, string(KindService), logger.FieldState, string(StateStarting)))

	ctx, op := observability.StartNode(ctx, id, string(KindService), r.o.metrics)

	to, err := r.startService(ctx, svc)
	to = r.finish(ctx, id, StateStarting, to, err)
	op.End(ctx, string(to), err)
}

func (r *run) startService(ctx context.Context, svc *Service) (State, error) {
	if svc.Start != nil {
		req := StartRequest{RunID: r.id, ServiceID: svc.ID, RestartPolicy: svc.restartPolicy()}
		if err := svc.Start.Start(ctx, req); err != nil {
			return StateFailed, &LaunchError{ServiceID: svc.ID, Err: err}
		}
		r.o.trackStop(ctx, svc)
	}

	spec := r.o.specs[svc.ID]
	prober := probe.New(probe.WithRegistry(r.o.probes), probe.WithObserver(r.observer(ctx, svc.ID)))
	res := prober.Await(ctx, spec)
	r.table.annotate(svc.ID, res.Attempts, "")
	if res.Ready() {
		return StateReady, nil
	}
	r.table.annotate(svc.ID, 0, res.Reason)
	return StateFailed, res.Err
}

// observer logs NotReady attempts at debug level, then at warn level once
// half of the attempt budget is used.
func (r *run) observer(ctx context.Context, id string) probe.Observer {
	log := r.log.WithContext(ctx)
	return func(spec probe.Spec, attempt probe.Result) {
		r.table.annotate(id, attempt.Attempts, "")
		if r.o.metrics != nil {
			r.o.metrics.RecordProbeAttempt(ctx, id, string(spec.Kind))
		}
		fields := logger.Fields(
			logger.FieldProbeKind, string(spec.Kind),
			logger.FieldTarget, spec.Target,
			logger.FieldAttempt, attempt.Attempts,
			logger.FieldAttempts, spec.MaxAttempts,
			logger.FieldReason, attempt.Reason,
		)
		if attempt.Attempts*2 > spec.MaxAttempts {
			log.Warn("service not ready", fields)
			return
		}
		log.Debug("service not ready", fields)
	}
}

func (r *run) runTask(ctx context.Context, id string) {
	task := r.o.tasks[id]
	if !r.move(id, StatePending, StateRunning) {
		return
	}
	ctx = logger.ContextWithNode(ctx, id)
	log := r.log.WithContext(ctx)
	log.Info("task running", logger.Fields(logger.FieldNodeKind, string(KindTask), logger.FieldKey, task.Key()))

	ctx, op := observability.StartNode(ctx, id, string(KindTask), r.o.metrics)

	out := r.o.executor.Execute(ctx, task)
	to := StateFailed
	switch out.Status {
	case provision.Applied:
		to = StateApplied
	case provision.Skipped:
		to = StateSkipped
		r.table.annotate(id, 0, "already applied")
	}
	to = r.finish(ctx, id, StateRunning, to, out.Err)
	op.End(ctx, string(to), out.Err)
}

// finish moves id to its terminal state and handles a failure. A node
// whose error comes from the run context ending is canceled, not failed.
func (r *run) finish(ctx context.Context, id string, from, to State, err error) State {
	log := r.log.WithContext(ctx)
	if err != nil && ctx.Err() != nil &&
		(stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)) {
		to = StateCanceled
	}
	if !r.move(id, from, to) {
		return r.table.state(id)
	}

	switch to {
	case StateFailed:
		nerr := &NodeError{NodeID: id, Kind: r.o.kinds[id], Elapsed: r.table.elapsed(id), Err: err}
		r.table.annotate(id, 0, err.Error())
		r.mu.Lock()
		r.failures = append(r.failures, nerr)
		r.mu.Unlock()

		log.Error("node failed", logger.MergeWithDuration(logger.Fields(
			logger.FieldNodeKind, string(r.o.kinds[id]),
			logger.FieldState, string(to),
			"code", string(errors.CodeOf(err)),
			logger.FieldError, err.Error(),
			logger.FieldDependents, r.o.graph.Dependents(id),
		), nerr.Elapsed))
		if !r.o.cfg.BestEffort {
			r.abort(errAborted)
		}
	case StateCanceled:
		r.table.annotate(id, 0, "canceled: "+context.Cause(ctx).Error())
		log.Warn("node canceled", logger.Fields(logger.FieldNodeKind, string(r.o.kinds[id]), logger.FieldState, string(to)))
	default:
		log.Info("node "+string(to), logger.DurationFields(string(r.o.kinds[id]), r.table.elapsed(id)))
	}
	return to
}

// move applies a transition and logs the rare illegal one.
func (r *run) move(id string, from, to State) bool {
	if err := r.table.transition(id, from, to); err != nil {
		r.log.Error("state transition rejected", logger.ErrorFields("transition", err))
		return false
	}
	return true
}

func (r *run) result(ctx context.Context, duration time.Duration) *Result {
	entries, order := r.table.snapshot()
	res := &Result{
		RunID:    r.id,
		Outcome:  OutcomeSuccess,
		States:   make(map[string]State, len(entries)),
		Order:    order,
		Duration: duration,
	}

	allDone := true
	var inFlight, pending []string
	for _, id := range r.o.graph.TopoOrder() {
		e := entries[id]
		report := NodeReport{
			ID:       id,
			Kind:     e.kind,
			State:    e.state,
			Attempts: e.attempts,
			Elapsed:  e.elapsedLocked(),
			Detail:   e.detail,
		}
		if e.state == StatePending {
			report.Detail = r.waitingOn(id, entries)
			pending = append(pending, id)
		}
		res.States[id] = e.state
		res.Nodes = append(res.Nodes, report)
		if !e.state.Succeeded() {
			allDone = false
		}
	}
	for _, id := range order {
		if entries[id].state == StateCanceled {
			inFlight = append(inFlight, id)
		}
	}

	r.mu.Lock()
	res.Failures = append([]error(nil), r.failures...)
	r.mu.Unlock()

	if allDone {
		return res
	}
	res.Outcome = OutcomeAborted

	var runErr error
	switch cause := context.Cause(ctx); {
	case stderrors.Is(cause, context.DeadlineExceeded):
		runErr = &RunTimeoutError{Timeout: r.o.cfg.Timeout, InFlight: inFlight, Pending: pending}
	case cause != nil && !stderrors.Is(cause, errAborted):
		runErr = errors.New(errors.ErrCodeRunCanceled, "run canceled").WithCause(cause)
	}

	switch {
	case len(res.Failures) > 0:
		res.Cause = res.Failures[0]
		if runErr != nil {
			res.Failures = append(res.Failures, runErr)
		}
	case runErr != nil && len(inFlight) > 0:
		first := inFlight[0]
		e := entries[first]
		res.Cause = &NodeError{NodeID: first, Kind: e.kind, Elapsed: e.elapsedLocked(), Err: runErr}
		res.Failures = append(res.Failures, res.Cause)
	case runErr != nil:
		res.Cause = runErr
		res.Failures = append(res.Failures, runErr)
	default:
		res.Cause = errors.Internal(fmt.Errorf("run ended with unfinished nodes: %v", pending))
		res.Failures = append(res.Failures, res.Cause)
	}

	var nerr *NodeError
	if stderrors.As(res.Cause, &nerr) {
		res.FailedNodeID = nerr.NodeID
	}
	return res
}

// waitingOn explains why a pending node never started.
func (r *run) waitingOn(id string, entries map[string]entry) string {
	for _, dep := range r.o.graph.Dependencies(id) {
		if s := entries[dep].state; !s.Succeeded() {
			return fmt.Sprintf("waiting on %s (%s)", dep, s)
		}
	}
	return "not started"
}

// trackStop records a launched service for Shutdown.
func (o *Orchestrator) trackStop(ctx context.Context, svc *Service) {
	if svc.Stop == nil {
		return
	}
	if err := o.started.Start(ctx, component.Func(svc.ID, nil, svc.Stop.Stop)); err != nil {
		o.log.Debug("stop action already tracked", logger.Fields(logger.FieldNode, svc.ID))
	}
}

// Shutdown stops the services launched by Run in reverse start order.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	return o.started.StopAll(ctx)
}

// Down stops every service that has a stop action in reverse topological
// order, whether or not this process started it.
func (o *Orchestrator) Down(ctx context.Context) error {
	reg := component.NewRegistry(o.log)
	for _, id := range o.graph.TopoOrder() {
		svc, ok := o.services[id]
		if !ok || svc.Stop == nil {
			continue
		}
		if err := reg.Start(ctx, component.Func(id, nil, svc.Stop.Stop)); err != nil {
			return err
		}
	}
	return reg.StopAll(ctx)
}
