package commands

import (
	"github.com/spf13/cobra"
)

func newGraphCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Validate the stack file and print the start order",
		Long: `Validate the stack file without starting anything and print the
topological start order and the levels of nodes that start in parallel.
Cycles and unknown dependencies are reported with exit code 2.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd, o)
			if err != nil {
				return err
			}
			return app.Plan(cmd.Context())
		},
	}
}
