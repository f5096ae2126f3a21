package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stackit.dev/stacks/internal/cli/helpers"
	"stackit.dev/stacks/internal/runtime"
)

// newUndoCmd creates the undo command
func newUndoCmd() *cobra.Command {
	var (
		snapshotID string
		list       bool
	)

	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Restore the stacks to a previous state",
		Long: `Restore the stacks to their state before a modifying stacks command (like
'move', 'reword' or 'commit') was executed. By default the most recent
command is undone.

Use --list to see available undo points and --snapshot to restore a specific one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				if list {
					snapshots, err := ctx.Engine.Snapshots()
					if err != nil {
						return err
					}
					for _, s := range snapshots {
						ctx.Splog.Page(fmt.Sprintf("%s  %s\n", s.ID, s.DisplayName))
					}
					return nil
				}

				_, err := ctx.Engine.Undo(cmd.Context(), snapshotID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&snapshotID, "snapshot", "", "Specific snapshot ID to restore")
	cmd.Flags().BoolVar(&list, "list", false, "List available undo points")

	return cmd
}
