// Package cli wires the stacks commands to the engine.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stacks",
		Short: "Work on several stacks of commits at once in a single working directory",
		Long: `Stacks keeps any number of independent stacks of commits on top of a default
target branch and shows all of them at once in one working directory.

Commits can be moved between stacks and reworded; stacks above the change
are rebased automatically and conflicts are recorded instead of aborting.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("cwd", "C", ".", "Run as if stacks was started in this directory")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress informational output")

	// Add subcommands
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newStackCmd())
	rootCmd.AddCommand(newCommitCmd())
	rootCmd.AddCommand(newMoveCmd())
	rootCmd.AddCommand(newRewordCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newPushCmd())
	rootCmd.AddCommand(newUndoCmd())
	rootCmd.AddCommand(newStatusCmd())

	return rootCmd
}
