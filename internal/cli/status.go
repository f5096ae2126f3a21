package cli

import (
	"github.com/spf13/cobra"

	"stackit.dev/stacks/internal/cli/helpers"
	"stackit.dev/stacks/internal/runtime"
	"stackit.dev/stacks/internal/tui"
)

// newStatusCmd creates the status command
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show unresolved conflicts and all stacks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				conflicts, err := ctx.Engine.Conflicts()
				if err != nil {
					return err
				}
				if len(conflicts) > 0 {
					ctx.Splog.Page(tui.ColorRed("Unresolved conflicts:") + "\n")
					for _, p := range conflicts {
						ctx.Splog.Page("  " + p + "\n")
					}
					ctx.Splog.Newline()
				}
				return printStacks(cmd, ctx, true)
			})
		},
	}
}
