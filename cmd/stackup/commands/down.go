package commands

import (
	"github.com/spf13/cobra"
)

func newDownCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Run the stop command of every service, dependents first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd, o)
			if err != nil {
				return err
			}
			return app.Down(cmd.Context())
		},
	}
}
