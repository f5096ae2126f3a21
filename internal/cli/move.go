package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"stackit.dev/stacks/internal/cli/helpers"
	"stackit.dev/stacks/internal/runtime"
	"stackit.dev/stacks/internal/stack"
	"stackit.dev/stacks/internal/tui"
)

// newMoveCmd creates the move command
func newMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <commit> [destination-stack]",
		Short: "Move a commit to the top of another stack",
		Long: `Move a commit out of the stack that holds it and onto the top of another
stack. Commits above it in the source stack are rebased; conflicts are
recorded and must be resolved before the next change.

Without a destination you will be asked to pick one.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				id, err := ctx.Engine.Repository().ResolveCommitID(args[0])
				if err != nil {
					return err
				}
				source, err := ctx.Engine.FindStackForCommit(id)
				if err != nil {
					return err
				}

				var destination *stack.Stack
				if len(args) == 2 {
					destination, err = ctx.Engine.GetStack(args[1])
				} else if helpers.Interactive(ctx) {
					destination, err = selectStack(ctx, "Move to which stack?", source.ID)
				} else {
					err = errors.New("a destination stack is required")
				}
				if err != nil {
					return err
				}

				return ctx.Engine.MoveCommit(cmd.Context(), destination.ID, id, source.ID)
			})
		},
	}

	return cmd
}

// selectStack prompts for a stack other than exclude
func selectStack(ctx *runtime.Context, message, exclude string) (*stack.Stack, error) {
	stacks, err := ctx.Engine.Store().List()
	if err != nil {
		return nil, err
	}

	var options []tui.SelectOption
	for _, st := range stacks {
		if st.ID != exclude {
			options = append(options, tui.SelectOption{Label: st.Name, Value: st.ID})
		}
	}
	id, err := tui.PromptSelect(message, options)
	if err != nil {
		return nil, err
	}
	return ctx.Engine.Store().Get(id)
}
