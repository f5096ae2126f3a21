package helpers

import (
	"io"

	"github.com/spf13/cobra"

	"stackit.dev/stacks/internal/runtime"
)

// CompleteStacks is a helper for cobra.ValidArgsFunction that returns all
// stack names in the repository.
func CompleteStacks(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	dir := "."
	if f := cmd.Flag("cwd"); f != nil && f.Value.String() != "" {
		dir = f.Value.String()
	}
	ctx, err := runtime.GetContext(dir, io.Discard)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer func() { _ = ctx.Close() }()

	stacks, err := ctx.Engine.Store().List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	names := make([]string, 0, len(stacks))
	for _, st := range stacks {
		names = append(names, st.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
