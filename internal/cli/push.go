package cli

import (
	"github.com/spf13/cobra"

	"stackit.dev/stacks/internal/cli/helpers"
	"stackit.dev/stacks/internal/runtime"
)

// newPushCmd creates the push command
func newPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push <stack>",
		Short: "Push a stack to its upstream branch",
		Long: `Push a stack's head to its upstream branch, by default a branch named after
the stack on the default target's remote. The push is forced when the stack
was rewritten since the last push, unless the stack does not allow rebasing.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: helpers.CompleteStacks,
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				st, err := ctx.Engine.GetStack(args[0])
				if err != nil {
					return err
				}
				return ctx.Engine.PushStack(cmd.Context(), st.ID)
			})
		},
	}
}
