package engine_test

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"stackit.dev/stacks/testhelpers"
	"stackit.dev/stacks/testhelpers/scenario"
)

func expectWorktreeFile(t *testing.T, s *scenario.Scenario, path, expected string) {
	t.Helper()
	content, err := s.Repo().ReadWorktreeFile(path)
	require.NoError(t, err, path)
	require.Equal(t, expected, string(content), path)
}

func TestLocalChangesSurviveMutations(t *testing.T) {
	ctx := context.Background()

	t.Run("create, commit and move", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().WithStack("a", "one")
		fs := s.Scene.FS

		require.NoError(t, util.WriteFile(fs, "one.txt", []byte("uncommitted work\n"), 0o644))
		require.NoError(t, util.WriteFile(fs, "scratch.txt", []byte("scratch\n"), 0o644))

		s.CreateStack("b")
		expectWorktreeFile(t, s, "one.txt", "uncommitted work\n")
		expectWorktreeFile(t, s, "scratch.txt", "scratch\n")

		two := s.Commit("b", "two", map[string]string{"two.txt": "two\n"})
		expectWorktreeFile(t, s, "one.txt", "uncommitted work\n")
		expectWorktreeFile(t, s, "scratch.txt", "scratch\n")
		expectWorktreeFile(t, s, "two.txt", "two\n")

		require.NoError(t, s.Engine.MoveCommit(ctx, s.Stack("a").ID, two, s.Stack("b").ID))
		s.ExpectStack("a", "two", "one")
		expectWorktreeFile(t, s, "one.txt", "uncommitted work\n")
		expectWorktreeFile(t, s, "scratch.txt", "scratch\n")
		expectWorktreeFile(t, s, "two.txt", "two\n")
	})

	t.Run("local edits win over workspace changes to the same path", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().WithStack("a")

		require.NoError(t, util.WriteFile(s.Scene.FS, "README.md", []byte("local\n"), 0o644))
		head := s.Commit("a", "change readme", map[string]string{"README.md": "committed\n"})

		expectWorktreeFile(t, s, "README.md", "local\n")
		testhelpers.ExpectFile(t, s.Repo(), head, "README.md", "committed\n")
	})

	t.Run("undo keeps untracked files", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().WithStack("a", "one")
		require.NoError(t, util.WriteFile(s.Scene.FS, "scratch.txt", []byte("scratch\n"), 0o644))

		_, err := s.Engine.Undo(ctx, "")
		require.NoError(t, err)
		s.ExpectStack("a")
		expectWorktreeFile(t, s, "scratch.txt", "scratch\n")
		_, err = s.Scene.FS.Lstat("one.txt")
		require.Error(t, err)
	})
}
