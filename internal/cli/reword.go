package cli

import (
	"github.com/spf13/cobra"

	"stackit.dev/stacks/internal/cli/helpers"
	"stackit.dev/stacks/internal/runtime"
	"stackit.dev/stacks/internal/tui"
)

// newRewordCmd creates the reword command
func newRewordCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "reword <commit>",
		Short: "Change a commit message",
		Long: `Change the message of a commit in a stack. Commits above it are rebased.
Rewording a pushed commit on a stack that does not allow rebasing is refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				repo := ctx.Engine.Repository()
				id, err := repo.ResolveCommitID(args[0])
				if err != nil {
					return err
				}
				st, err := ctx.Engine.FindStackForCommit(id)
				if err != nil {
					return err
				}

				if message == "" && helpers.Interactive(ctx) {
					commit, err := repo.FindCommit(id)
					if err != nil {
						return err
					}
					if message, err = tui.PromptTextInput("New commit message:", commit.Subject()); err != nil {
						return err
					}
				}

				_, err = ctx.Engine.UpdateCommitMessage(cmd.Context(), st.ID, id, message)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "New commit message")

	return cmd
}
