// Package commands implements the stackup CLI.
package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/stackup/bootstrap"
	"github.com/kbukum/stackup/config"
	"github.com/kbukum/stackup/errors"
	"github.com/kbukum/stackup/version"
)

// options holds the global flags.
type options struct {
	configFile    string
	envFile       string
	stackFile     string
	timeout       time.Duration
	bestEffort    bool
	maxParallel   int
	maxAttempts   int
	retryInterval time.Duration
	logLevel      string

	out io.Writer
}

// exitError carries a non-default exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// NewRootCmd builds the command tree writing command output to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	o := &options{out: out}

	root := &cobra.Command{
		Use:   "stackup",
		Short: "Start a stack of services in dependency order",
		Long: `stackup starts the services of a stack in dependency order, waits for each
to report ready and runs idempotent bootstrap tasks such as bucket or database
creation once their dependencies are up.

Settings come from stackup.yml, .env, STACKUP_* environment variables and the
flags below, in increasing order of precedence.

Exit codes: 0 the stack is up, 1 the run was aborted, 2 the configuration or
the stack file is invalid.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.InvalidInput("flags", err.Error())
	})

	f := root.PersistentFlags()
	f.StringVar(&o.configFile, "config", "", "config file (default: ./stackup.yml)")
	f.StringVar(&o.envFile, "env-file", "", "env file (default: ./.env)")
	f.StringVarP(&o.stackFile, "stack-file", "f", config.DefaultStackFile, "stack declaration")
	f.DurationVar(&o.timeout, "timeout", config.DefaultRunTimeout, "overall deadline of the run")
	f.BoolVar(&o.bestEffort, "best-effort", false, "keep independent branches running after a failure")
	f.IntVar(&o.maxParallel, "max-parallel", 0, "bound on concurrent node work (0: graph width)")
	f.IntVar(&o.maxAttempts, "max-attempts", config.DefaultMaxAttempts, "readiness attempts per probe")
	f.DurationVar(&o.retryInterval, "retry-interval", config.DefaultRetryInterval, "pause between readiness attempts")
	f.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")

	root.AddCommand(newUpCmd(o), newDownCmd(o), newGraphCmd(o), newVersionCmd(o))
	root.CompletionOptions.DisableDefaultCmd = true
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(stdout)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return bootstrap.ExitSuccess
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)

	var ee *exitError
	if stderrors.As(err, &ee) {
		return ee.code
	}
	return bootstrap.ExitCode(nil, err)
}

// loadApp loads the configuration with changed flags applied last.
func loadApp(cmd *cobra.Command, o *options) (*bootstrap.App, error) {
	lopts := []config.LoaderOption{config.WithEnvPrefix("STACKUP")}
	if o.configFile != "" {
		lopts = append(lopts, config.WithConfigFile(o.configFile))
	}
	if o.envFile != "" {
		lopts = append(lopts, config.WithEnvFile(o.envFile))
	}

	flags := cmd.Flags()
	override := func(flag, key string, value any) {
		if flags.Changed(flag) {
			lopts = append(lopts, config.WithOverride(key, value))
		}
	}
	override("stack-file", "stack_file", o.stackFile)
	override("timeout", "run.timeout", o.timeout)
	override("best-effort", "run.best_effort", o.bestEffort)
	override("max-parallel", "run.max_parallel", o.maxParallel)
	override("max-attempts", "run.max_attempts", o.maxAttempts)
	override("retry-interval", "run.retry_interval", o.retryInterval)
	override("log-level", "logging.level", o.logLevel)

	var cfg config.Config
	if err := config.LoadConfig("stackup", &cfg, lopts...); err != nil {
		return nil, errors.Validation("cannot load configuration").WithCause(err)
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Short()
	}
	return bootstrap.NewApp(&cfg, bootstrap.WithOutput(o.out))
}
