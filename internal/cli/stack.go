package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"stackit.dev/stacks/internal/cli/helpers"
	"stackit.dev/stacks/internal/engine"
	stackserrors "stackit.dev/stacks/internal/errors"
	"stackit.dev/stacks/internal/runtime"
	"stackit.dev/stacks/internal/stack"
	"stackit.dev/stacks/internal/tui"
	"stackit.dev/stacks/internal/utils"
)

// newStackCmd creates the stack command and its subcommands
func newStackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Create, list, update and delete stacks",
	}

	cmd.AddCommand(newStackCreateCmd())
	cmd.AddCommand(newStackListCmd())
	cmd.AddCommand(newStackUpdateCmd())
	cmd.AddCommand(newStackDeleteCmd())
	cmd.AddCommand(newStackSeriesCmd())

	return cmd
}

func newStackCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty stack on the default target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				_, err := ctx.Engine.CreateStack(cmd.Context(), args[0])
				return err
			})
		},
	}
}

func newStackListCmd() *cobra.Command {
	var showEmpty bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stacks with the status of each commit",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return printStacks(cmd, ctx, showEmpty)
			})
		},
	}

	cmd.Flags().BoolVar(&showEmpty, "show-empty", true, "Show a placeholder for stacks without commits")

	return cmd
}

func printStacks(cmd *cobra.Command, ctx *runtime.Context, showEmpty bool) error {
	views, err := ctx.Engine.ListStacks(cmd.Context())
	if err != nil {
		return err
	}
	renderer := &tui.StackListRenderer{ShowEmpty: showEmpty}
	ctx.Splog.Page(renderer.Render(toStackLines(views)))
	return nil
}

func newStackUpdateCmd() *cobra.Command {
	var (
		name          string
		allowRebasing bool
		remote        string
		branch        string
	)

	cmd := &cobra.Command{
		Use:               "update <stack>",
		Short:             "Rename a stack or change its rebasing policy and upstream",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: helpers.CompleteStacks,
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				st, err := ctx.Engine.GetStack(args[0])
				if err != nil {
					return err
				}

				var update engine.StackUpdate
				if cmd.Flags().Changed("name") {
					update.Name = &name
				}
				if cmd.Flags().Changed("allow-rebasing") {
					update.AllowRebasing = &allowRebasing
				}
				if cmd.Flags().Changed("remote") || cmd.Flags().Changed("branch") {
					upstream := stack.Upstream{Remote: remote, Branch: branch}
					if st.Upstream != nil {
						if upstream.Remote == "" {
							upstream.Remote = st.Upstream.Remote
						}
						if upstream.Branch == "" {
							upstream.Branch = st.Upstream.Branch
						}
					}
					if upstream.Remote == "" {
						upstream.Remote = ctx.Config.DefaultRemote
					}
					if upstream.Branch == "" {
						upstream.Branch = utils.SanitizeBranchName(st.Name)
					}
					update.Upstream = &upstream
				}

				updated, err := ctx.Engine.UpdateStack(cmd.Context(), st.ID, update)
				if err != nil {
					return err
				}
				ctx.Splog.Info("Updated stack %s.", updated.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New stack name")
	cmd.Flags().BoolVar(&allowRebasing, "allow-rebasing", true, "Allow rewriting commits that were already pushed")
	cmd.Flags().StringVar(&remote, "remote", "", "Remote to push the stack to")
	cmd.Flags().StringVar(&branch, "branch", "", "Remote branch to push the stack to")

	return cmd
}

func newStackDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:               "delete <stack>",
		Short:             "Delete a stack",
		Long:              `Delete a stack. A stack that still has commits is only deleted with --force or after confirmation.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: helpers.CompleteStacks,
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				st, err := ctx.Engine.GetStack(args[0])
				if err != nil {
					return err
				}

				err = ctx.Engine.DeleteStack(cmd.Context(), st.ID, force)
				if !errors.Is(err, stackserrors.ErrStackNotEmpty) || force || !helpers.Interactive(ctx) {
					return err
				}

				confirmed, promptErr := tui.PromptConfirm("Stack "+st.Name+" still has commits. Delete it anyway?", false)
				if promptErr != nil {
					return promptErr
				}
				if !confirmed {
					return err
				}
				return ctx.Engine.DeleteStack(cmd.Context(), st.ID, true)
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete the stack even if it has commits")

	return cmd
}

func newStackSeriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "series <stack> <name> <commit>",
		Short: "Name a position inside a stack",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				st, err := ctx.Engine.GetStack(args[0])
				if err != nil {
					return err
				}
				id, err := ctx.Engine.Repository().ResolveCommitID(args[2])
				if err != nil {
					return err
				}
				if err := ctx.Engine.AddSeries(cmd.Context(), st.ID, args[1], id); err != nil {
					return err
				}
				ctx.Splog.Info("Added series %s to %s.", args[1], st.Name)
				return nil
			})
		},
	}
}
