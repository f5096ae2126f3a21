package tui

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
)

func TestStackListRenderer(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	t.Run("no stacks", func(t *testing.T) {
		r := &StackListRenderer{}
		require.Equal(t, "No stacks.\n", r.Render(nil))
	})

	t.Run("renders commits with badges", func(t *testing.T) {
		r := &StackListRenderer{}
		out := r.Render([]StackLine{{
			Name:          "feature",
			Head:          "abc1234",
			Upstream:      "origin/feature",
			RequiresForce: true,
			Commits: []CommitLine{
				{ID: "abc1234", Subject: "two", Status: "local"},
				{ID: "def5678", Subject: "one", Status: "remote", Conflicted: true},
			},
		}})

		require.Equal(t,
			"◆ feature (abc1234) → origin/feature [force push required]\n"+
				"│ ● abc1234 two [local]\n"+
				"│ ✗ def5678 one [remote] conflicted\n",
			out)
	})

	t.Run("empty stack placeholder", func(t *testing.T) {
		r := &StackListRenderer{ShowEmpty: true}
		out := r.Render([]StackLine{{Name: "a"}, {Name: "b", Conflicted: true}})
		require.Equal(t, "◆ a\n│ (no commits)\n\n◆ b [conflicted]\n│ (no commits)\n", out)
	})
}

func TestSplogQuiet(t *testing.T) {
	var buf bytes.Buffer
	splog, err := NewSplogWithWriter(&buf, LogFileOptions{})
	require.NoError(t, err)

	splog.Info("hello %s", "world")
	splog.SetQuiet(true)
	require.True(t, splog.IsQuiet())
	splog.Info("hidden")
	splog.Page("hidden page")
	splog.SetQuiet(false)
	require.False(t, splog.IsQuiet())
	splog.Warn("careful")
	splog.Error("%v", "boom")

	require.Equal(t, "hello world\n⚠️  careful\n❌ boom\n", buf.String())
	require.NoError(t, splog.Close())
}

func TestSplogLogFile(t *testing.T) {
	var buf bytes.Buffer
	path := t.TempDir() + "/logs/stacks.log"
	splog, err := NewSplogWithWriter(&buf, LogFileOptions{Path: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	require.NoError(t, err)

	splog.Debug("only in file")
	require.NoError(t, splog.Close())

	require.NotContains(t, buf.String(), "only in file")
	require.FileExists(t, path)
}

func TestGetLogFilePath(t *testing.T) {
	require.Equal(t, "/repo/.git/stacks/logs/stacks.log", GetLogFilePath("/repo/.git"))
}
