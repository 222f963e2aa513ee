package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/stackup/config"
	"github.com/kbukum/stackup/errors"
	"github.com/kbukum/stackup/logger"
	"github.com/kbukum/stackup/observability"
	"github.com/kbukum/stackup/orchestrator"
	"github.com/kbukum/stackup/stackfile"
)

// App runs stackup commands against one configuration.
type App struct {
	Name    string
	Version string
	Cfg     *config.Config
	Logger  *logger.Logger
	Summary *Summary

	out             io.Writer
	gracefulTimeout time.Duration
	buildOpts       []stackfile.BuildOption
	orchOpts        []orchestrator.Option

	onStart []Hook
	onStop  []Hook
}

// NewApp applies defaults to cfg, validates it and initializes the logger.
// A configuration error is reported as a static error.
func NewApp(cfg *config.Config, opts ...Option) (*App, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Validation("invalid configuration").WithCause(err)
	}

	app := &App{
		Name:            cfg.Name,
		Version:         cfg.Version,
		Cfg:             cfg,
		out:             os.Stdout,
		gracefulTimeout: 15 * time.Second,
	}

	o := resolveOptions(opts)
	if o.out != nil {
		app.out = o.out
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	app.buildOpts = o.build
	app.orchOpts = o.orchestrator

	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(&cfg.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	app.Summary = NewSummary(app.Name, app.Version)
	return app, nil
}

// RunTask runs OnStart hooks, then task under a context that SIGINT and
// SIGTERM cancel, then OnStop hooks. The task error wins over a hook
// error from the stop phase.
func (a *App) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Warn("Received signal, canceling run", map[string]interface{}{
				"signal": sig.String(),
			})
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

// stop runs OnStop hooks within the graceful timeout. Every hook runs even
// when an earlier one fails.
func (a *App) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var firstErr error
	for i, h := range a.onStop {
		if err := h(ctx); err != nil {
			a.Logger.Error("OnStop hook error", logger.ErrorFields("stop", err))
			if firstErr == nil {
				firstErr = fmt.Errorf("hook %d failed: %w", i, err)
			}
		}
	}
	return firstErr
}

// Load reads the stack file and builds an orchestrator from it with the
// run settings of the configuration. The clients the stack needs are
// closed by an OnStop hook.
func (a *App) Load(ctx context.Context) (*orchestrator.Orchestrator, error) {
	file, err := stackfile.Load(a.Cfg.StackFile)
	if err != nil {
		return nil, err
	}
	buildOpts := append([]stackfile.BuildOption{stackfile.WithLogger(a.Logger)}, a.buildOpts...)
	stack, err := file.Build(ctx, buildOpts...)
	if err != nil {
		return nil, err
	}
	a.OnStop(func(context.Context) error { return stack.Close() })

	opts := []orchestrator.Option{
		orchestrator.WithLogger(a.Logger),
		orchestrator.WithProbeRegistry(stack.Probes),
	}
	metrics, err := observability.NewMetrics(observability.Meter("github.com/kbukum/stackup"))
	if err != nil {
		a.Logger.Warn("Metrics disabled", logger.ErrorFields("metrics", err))
	} else {
		opts = append(opts, orchestrator.WithMetrics(metrics))
	}
	opts = append(opts, a.orchOpts...)

	return orchestrator.New(stack.Services, stack.Tasks, orchestrator.ConfigFromRun(a.Cfg.Run), opts...)
}

// Up brings the stack up and renders the outcome. The error is non-nil
// only when the stack could not be loaded; a failed run is reported
// through the result.
func (a *App) Up(ctx context.Context) (*orchestrator.Result, error) {
	var res *orchestrator.Result
	err := a.RunTask(ctx, func(ctx context.Context) error {
		orch, err := a.Load(ctx)
		if err != nil {
			return err
		}

		a.Logger.Info("Bringing stack up", map[string]interface{}{
			"stack_file": a.Cfg.StackFile,
			"nodes":      orch.Graph().Len(),
			"levels":     len(orch.Graph().Levels()),
		})
		res = orch.Run(ctx)
		a.Summary.Record(res)
		a.Summary.Render(a.out)

		if res.Succeeded() {
			a.Logger.Info("Stack is up", logger.DurationFields("up", res.Duration))
		} else {
			a.Logger.Error("Stack did not come up", logger.MergeWithError(map[string]interface{}{
				logger.FieldNode: res.FailedNodeID,
			}, res.Cause))
		}
		return nil
	})
	return res, err
}

// Down runs the stop action of every service in reverse dependency order.
func (a *App) Down(ctx context.Context) error {
	return a.RunTask(ctx, func(ctx context.Context) error {
		orch, err := a.Load(ctx)
		if err != nil {
			return err
		}
		a.Logger.Info("Bringing stack down", map[string]interface{}{
			"stack_file": a.Cfg.StackFile,
		})
		return orch.Down(ctx)
	})
}

// Plan validates the stack without starting anything and renders its
// start order and parallel levels.
func (a *App) Plan(ctx context.Context) error {
	return a.RunTask(ctx, func(ctx context.Context) error {
		orch, err := a.Load(ctx)
		if err != nil {
			return err
		}
		RenderPlan(a.out, orch.Graph())
		return nil
	})
}
