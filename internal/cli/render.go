package cli

import (
	"stackit.dev/stacks/internal/engine"
	"stackit.dev/stacks/internal/tui"
)

// toStackLines converts engine views into rows for the stack list renderer
func toStackLines(views []engine.StackView) []tui.StackLine {
	lines := make([]tui.StackLine, 0, len(views))
	for _, v := range views {
		line := tui.StackLine{
			Name:          v.Stack.Name,
			Head:          v.Stack.Head.String()[:7],
			RequiresForce: v.RequiresForce,
			Conflicted:    v.Conflicted,
		}
		if v.Stack.Upstream != nil {
			line.Upstream = v.Stack.Upstream.Remote + "/" + v.Stack.Upstream.Branch
		}
		for _, c := range v.Commits {
			line.Commits = append(line.Commits, tui.CommitLine{
				ID:         c.Commit.ID.String()[:7],
				Subject:    c.Commit.Subject(),
				Status:     c.Status.String(),
				Conflicted: c.Commit.IsConflicted(),
			})
		}
		lines = append(lines, line)
	}
	return lines
}
