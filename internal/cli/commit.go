package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"stackit.dev/stacks/internal/cli/helpers"
	"stackit.dev/stacks/internal/git"
	"stackit.dev/stacks/internal/runtime"
	"stackit.dev/stacks/internal/tui"
)

// newCommitCmd creates the commit command
func newCommitCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "commit <stack> <path>...",
		Short: "Commit files from the working directory to a stack",
		Long: `Commit the current content of the given paths to a stack. A path that no
longer exists in the working directory is deleted in the commit.`,
		Args:              cobra.MinimumNArgs(2),
		ValidArgsFunction: helpers.CompleteStacks,
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				st, err := ctx.Engine.GetStack(args[0])
				if err != nil {
					return err
				}

				changes, err := readChanges(ctx.Engine.Repository(), args[1:])
				if err != nil {
					return err
				}

				if message == "" && helpers.Interactive(ctx) {
					if message, err = tui.PromptTextInput("Commit message:", ""); err != nil {
						return err
					}
				}

				_, err = ctx.Engine.CreateCommit(cmd.Context(), st.ID, message, changes)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message")

	return cmd
}

// readChanges loads paths from the working directory; missing paths become deletions
func readChanges(repo *git.Repository, paths []string) ([]git.FileChange, error) {
	changes := make([]git.FileChange, 0, len(paths))
	for _, p := range paths {
		content, err := repo.ReadWorktreeFile(p)
		switch {
		case errors.Is(err, os.ErrNotExist):
			changes = append(changes, git.FileChange{Path: p})
		case err != nil:
			return nil, err
		default:
			if content == nil {
				content = []byte{}
			}
			changes = append(changes, git.FileChange{Path: p, Content: content})
		}
	}
	return changes, nil
}
