package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/stackup/logger"
	"github.com/kbukum/stackup/orchestrator"
	"github.com/kbukum/stackup/stackfile"
)

// Option configures the App during creation.
type Option func(*appOptions)

// appOptions collects all option values before applying to App.
type appOptions struct {
	logger          *logger.Logger
	out             io.Writer
	gracefulTimeout *time.Duration
	build           []stackfile.BuildOption
	orchestrator    []orchestrator.Option
}

// resolveOptions applies all options and returns the collected values.
func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the logger is auto-initialized from the config's Logging field.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithOutput sets where summaries and plans are written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(o *appOptions) {
		o.out = w
	}
}

// WithGracefulTimeout sets the maximum duration of the OnStop phase.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithBuildOptions passes options to stackfile.Build.
func WithBuildOptions(opts ...stackfile.BuildOption) Option {
	return func(o *appOptions) {
		o.build = append(o.build, opts...)
	}
}

// WithOrchestratorOptions passes options to orchestrator.New after the
// ones the App sets itself.
func WithOrchestratorOptions(opts ...orchestrator.Option) Option {
	return func(o *appOptions) {
		o.orchestrator = append(o.orchestrator, opts...)
	}
}
