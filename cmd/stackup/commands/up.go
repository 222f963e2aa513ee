package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/stackup/bootstrap"
	"github.com/kbukum/stackup/observability"
)

func newUpCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Start the stack and wait until every node is ready",
		Long: `Start every service of the stack file in dependency order, wait for each
readiness probe and run the bootstrap tasks. Independent branches start in
parallel. A per-node table of the outcome is printed when the run ends.

Examples:
  # Start the stack declared in ./stack.yml
  stackup up

  # Give up after two minutes and keep unrelated branches going
  stackup up --timeout 2m --best-effort

  # Override settings from the environment
  STACKUP_RUN_MAX_ATTEMPTS=60 stackup up -f deploy/stack.yml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd, o)
			if err != nil {
				return err
			}

			shutdown, err := observability.Setup(cmd.Context(), app.Cfg)
			if err != nil {
				return fmt.Errorf("telemetry: %w", err)
			}
			app.OnStop(shutdown)

			res, err := app.Up(cmd.Context())
			if err != nil {
				return err
			}
			if !res.Succeeded() {
				return &exitError{
					code: bootstrap.ExitCode(res, nil),
					err:  fmt.Errorf("node %s: %w", res.FailedNodeID, res.Cause),
				}
			}
			return nil
		},
	}
}
