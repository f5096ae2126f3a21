// Package helpers provides shared helper functions for CLI commands.
package helpers

import (
	"github.com/spf13/cobra"

	"stackit.dev/stacks/internal/runtime"
	"stackit.dev/stacks/internal/tui"
)

// Run is a helper that provides a runtime context to a command's execution function
func Run(cmd *cobra.Command, fn func(ctx *runtime.Context) error) error {
	dir := "."
	if f := cmd.Flag("cwd"); f != nil && f.Value.String() != "" {
		dir = f.Value.String()
	}

	ctx, err := runtime.GetContext(dir, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() { _ = ctx.Close() }()

	if quiet, err := cmd.Flags().GetBool("quiet"); err == nil && quiet {
		ctx.Splog.SetQuiet(true)
	}
	return fn(ctx)
}

// Interactive reports whether prompts may be shown: output is a terminal
// and --quiet was not given
func Interactive(ctx *runtime.Context) bool {
	return tui.IsTTY() && !ctx.Splog.IsQuiet()
}
