package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"stackit.dev/stacks/internal/cli/helpers"
	"stackit.dev/stacks/internal/config"
	"stackit.dev/stacks/internal/runtime"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	var writeConfig bool

	cmd := &cobra.Command{
		Use:   "init <target-ref>",
		Short: "Set the default target that stacks are built on",
		Long: `Set the default target, usually a remote-tracking branch such as
refs/remotes/origin/main. Its current commit becomes the base for new stacks
and the workspace branch is checked out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				if _, err := ctx.Engine.SetDefaultTarget(cmd.Context(), args[0]); err != nil {
					return err
				}
				if !writeConfig {
					return nil
				}

				gitDir := ctx.Engine.Repository().GitDir()
				if gitDir == "" {
					return nil
				}
				if _, err := os.Stat(config.Path(gitDir)); !errors.Is(err, os.ErrNotExist) {
					return err
				}
				if err := config.Save(gitDir, ctx.Config); err != nil {
					return err
				}
				ctx.Splog.Info("Wrote %s.", config.Path(gitDir))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&writeConfig, "write-config", false, "Write the effective configuration to the repository if none exists")

	return cmd
}
