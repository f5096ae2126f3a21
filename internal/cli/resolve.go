package cli

import (
	"github.com/spf13/cobra"

	"stackit.dev/stacks/internal/cli/helpers"
	"stackit.dev/stacks/internal/runtime"
)

// newResolveCmd creates the resolve command
func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>...",
		Short: "Mark conflicted paths as resolved",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				for _, path := range args {
					if err := ctx.Engine.MarkResolved(cmd.Context(), path); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
