package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// CommitLine is one commit row in a stack listing
type CommitLine struct {
	ID         string
	Subject    string
	Status     string
	Conflicted bool
}

// StackLine is one stack in a listing. Commits are newest first.
type StackLine struct {
	Name          string
	Head          string
	Upstream      string
	RequiresForce bool
	Conflicted    bool
	Commits       []CommitLine
}

// StackListRenderer renders stacks as a vertical list with status badges
type StackListRenderer struct {
	// ShowEmpty renders a placeholder row for stacks without commits
	ShowEmpty bool
}

// Render returns the listing, one block per stack separated by a blank line
func (r *StackListRenderer) Render(stacks []StackLine) string {
	if len(stacks) == 0 {
		return ColorDim("No stacks.") + "\n"
	}

	blocks := make([]string, 0, len(stacks))
	for i, st := range stacks {
		blocks = append(blocks, r.renderStack(i, st))
	}
	return strings.Join(blocks, "\n")
}

func (r *StackListRenderer) renderStack(index int, st StackLine) string {
	color := StackColor(index)
	rail := lipgloss.NewStyle().Foreground(color).Render("│")

	var b strings.Builder
	header := lipgloss.NewStyle().Foreground(color).Bold(true).Render("◆ " + st.Name)
	if st.Head != "" {
		header += " " + ColorDim("("+st.Head+")")
	}
	if st.Upstream != "" {
		header += " → " + ColorCyan(st.Upstream)
	}
	if st.RequiresForce {
		header += " " + ColorYellow("[force push required]")
	}
	if st.Conflicted {
		header += " " + ColorRed("[conflicted]")
	}
	b.WriteString(header + "\n")

	if len(st.Commits) == 0 && r.ShowEmpty {
		b.WriteString(rail + " " + ColorDim("(no commits)") + "\n")
	}
	for _, c := range st.Commits {
		line := fmt.Sprintf("%s %s %s %s", rail, commitDot(c), ColorDim(c.ID), c.Subject)
		if badge := statusBadge(c.Status); badge != "" {
			line += " " + badge
		}
		if c.Conflicted {
			line += " " + ColorRed("conflicted")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func commitDot(c CommitLine) string {
	if c.Conflicted {
		return ColorRed("✗")
	}
	return "●"
}

func statusBadge(status string) string {
	switch status {
	case "remote":
		return ColorCyan("[remote]")
	case "integrated":
		return ColorGreen("[integrated]")
	case "":
		return ""
	default:
		return ColorDim("[" + status + "]")
	}
}
