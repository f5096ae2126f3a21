package engine_test

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	stackserrors "stackit.dev/stacks/internal/errors"
	"stackit.dev/stacks/internal/stack"
	"stackit.dev/stacks/internal/workspace"
	"stackit.dev/stacks/testhelpers"
	"stackit.dev/stacks/testhelpers/scenario"
)

func TestMoveCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the middle commit to another stack", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().
			WithStack("source", "one", "two", "three").
			WithStack("destination")

		one := s.CommitBySubject("source", "one")
		two := s.CommitBySubject("source", "two")
		three := s.CommitBySubject("source", "three")
		twoChangeID, _ := two.ChangeID()

		err := s.Engine.MoveCommit(ctx, s.Stack("destination").ID, two.ID, s.Stack("source").ID)
		require.NoError(t, err)

		s.ExpectStack("source", "three", "one")
		s.ExpectStack("destination", "two")

		source := s.Commits("source")
		require.Equal(t, one.ID, source[1].ID, "commits below the moved one are untouched")
		require.NotEqual(t, three.ID, source[0].ID)
		require.Equal(t, one.ID, source[0].Parents[0])

		moved := s.Commits("destination")[0]
		require.NotEqual(t, two.ID, moved.ID)
		movedChangeID, ok := moved.ChangeID()
		require.True(t, ok)
		require.Equal(t, twoChangeID, movedChangeID)
		require.Equal(t, s.Base(), moved.Parents[0])

		testhelpers.ExpectFiles(t, s.Repo(), s.Stack("source").Head, []string{"README.md", "one.txt", "three.txt"})
		testhelpers.ExpectFiles(t, s.Repo(), s.Stack("destination").Head, []string{"README.md", "two.txt"})
	})

	t.Run("lands on top of existing destination commits", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().
			WithStack("source", "one", "two").
			WithStack("destination", "d1")

		two := s.CommitBySubject("source", "two")
		require.NoError(t, s.Engine.MoveCommit(ctx, s.Stack("destination").ID, two.ID, s.Stack("source").ID))

		s.ExpectStack("source", "one")
		s.ExpectStack("destination", "two", "d1")
		testhelpers.ExpectFiles(t, s.Repo(), s.Stack("destination").Head, []string{"README.md", "d1.txt", "two.txt"})
	})

	t.Run("moving the only commit empties the source", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().
			WithStack("source", "one").
			WithStack("destination")

		one := s.CommitBySubject("source", "one")
		require.NoError(t, s.Engine.MoveCommit(ctx, s.Stack("destination").ID, one.ID, s.Stack("source").ID))

		s.ExpectStack("source")
		s.ExpectStack("destination", "one")
		require.Equal(t, s.Base(), s.Stack("source").Head)
		require.Equal(t, one.ID, s.Stack("destination").Head, "a commit already on the right parent is reused")
	})

	t.Run("series follow the moved commit's parent", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().
			WithStack("source", "one", "two").
			WithStack("destination")

		one := s.CommitBySubject("source", "one")
		two := s.CommitBySubject("source", "two")
		require.NoError(t, s.Engine.AddSeries(ctx, s.Stack("source").ID, "part-1", two.ID))

		require.NoError(t, s.Engine.MoveCommit(ctx, s.Stack("destination").ID, two.ID, s.Stack("source").ID))

		series := s.Stack("source").Series
		require.Len(t, series, 1)
		require.Equal(t, one.Identity(), series[0].Head)
	})

	t.Run("rebuilds the workspace", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().
			WithStack("source", "one", "two").
			WithStack("destination", "d1")

		two := s.CommitBySubject("source", "two")
		require.NoError(t, s.Engine.MoveCommit(ctx, s.Stack("destination").ID, two.ID, s.Stack("source").ID))

		branch, err := s.Repo().HeadBranch()
		require.NoError(t, err)
		require.Equal(t, workspace.DefaultBranch, branch)

		wsID, err := s.Repo().GetRef(workspace.DefaultBranch)
		require.NoError(t, err)
		ws, err := s.Repo().FindCommit(wsID)
		require.NoError(t, err)
		require.Equal(t, []plumbing.Hash{s.Stack("source").Head, s.Stack("destination").Head}, ws.Parents)
		testhelpers.ExpectFiles(t, s.Repo(), wsID, []string{"README.md", "d1.txt", "one.txt", "two.txt"})

		content, err := s.Repo().ReadWorktreeFile("two.txt")
		require.NoError(t, err)
		require.Equal(t, "two\n", string(content))
	})

	t.Run("conflicts are recorded and block further mutations", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget()
		s.CreateStack("source")
		s.Commit("source", "a", map[string]string{"README.md": "a\n"})
		b := s.Commit("source", "b", map[string]string{"README.md": "b\n"})
		s.CreateStack("destination")
		s.Commit("destination", "x", map[string]string{"README.md": "x\n"})

		require.NoError(t, s.Engine.MoveCommit(ctx, s.Stack("destination").ID, b, s.Stack("source").ID))

		s.ExpectStack("source", "a")
		s.ExpectStack("destination", "b", "x")
		head, err := s.Repo().FindCommit(s.Stack("destination").Head)
		require.NoError(t, err)
		require.True(t, head.IsConflicted())
		require.Contains(t, testhelpers.Must(s.Repo().FileAt(head.ID, "README.md")), "<<<<<<< ")

		conflicts, err := s.Engine.Conflicts()
		require.NoError(t, err)
		require.Equal(t, []string{"README.md"}, conflicts)

		views, err := s.Engine.ListStacks(ctx)
		require.NoError(t, err)
		require.False(t, views[0].Conflicted)
		require.True(t, views[1].Conflicted)

		a := s.CommitBySubject("source", "a")
		err = s.Engine.MoveCommit(ctx, s.Stack("destination").ID, a.ID, s.Stack("source").ID)
		require.ErrorIs(t, err, stackserrors.ErrUnresolvedConflicts)

		require.NoError(t, s.Engine.MarkResolved(ctx, "README.md"))
		require.NoError(t, s.Engine.AssureResolved())
		require.Error(t, s.Engine.MarkResolved(ctx, "README.md"))
	})

	t.Run("rejects invalid moves without changing anything", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().
			WithStack("source", "one").
			WithStack("destination", "d1")

		source := s.Stack("source")
		destination := s.Stack("destination")
		one := s.CommitBySubject("source", "one")
		d1 := s.CommitBySubject("destination", "d1")

		err := s.Engine.MoveCommit(ctx, source.ID, one.ID, source.ID)
		require.ErrorIs(t, err, stackserrors.ErrSameStack)

		err = s.Engine.MoveCommit(ctx, destination.ID, d1.ID, source.ID)
		require.ErrorIs(t, err, stackserrors.ErrNotFound)

		err = s.Engine.MoveCommit(ctx, "missing", one.ID, source.ID)
		require.ErrorIs(t, err, stackserrors.ErrNotFound)

		require.Equal(t, source.Head, s.Stack("source").Head)
		require.Equal(t, destination.Head, s.Stack("destination").Head)
		snapshots, err := s.Engine.Snapshots()
		require.NoError(t, err)
		for _, snap := range snapshots {
			require.NotEqual(t, "move", snap.Command)
		}
	})

	t.Run("refuses to excise a merge commit", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().
			WithStack("source", "one").
			WithStack("destination")

		repo := s.Repo()
		side := testhelpers.Must(repo.CommitOnto(s.Base(), "side", map[string]string{"side.txt": "side\n"}))
		merge := testhelpers.Must(repo.MergeCommit(s.Stack("source").Head, side, "merge side"))

		st := s.Stack("source")
		bh, err := stack.ComputeUpdatedBranchHead(repo.Repository, st, merge)
		require.NoError(t, err)
		require.NoError(t, s.Engine.Store().SetHead(st, bh))

		err = s.Engine.MoveCommit(ctx, s.Stack("destination").ID, merge, st.ID)
		require.ErrorIs(t, err, stackserrors.ErrMergeCommitExcision)
		require.Equal(t, merge, s.Stack("source").Head)
	})

	t.Run("uses the live target when it moved on", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().
			WithStack("source", "one", "two").
			WithStack("destination")

		s.AdvanceTarget("upstream", map[string]string{"upstream.txt": "upstream\n"})
		one := s.CommitBySubject("source", "one")
		two := s.CommitBySubject("source", "two")

		require.NoError(t, s.Engine.MoveCommit(ctx, s.Stack("destination").ID, one.ID, s.Stack("source").ID))

		s.ExpectStack("source", "two")
		s.ExpectStack("destination", "one")
		rewritten := s.Commits("source")[0]
		require.NotEqual(t, two.ID, rewritten.ID)
		require.Equal(t, s.Base(), rewritten.Parents[0])
	})
}

func TestUndoMove(t *testing.T) {
	ctx := context.Background()
	s := scenario.NewScenario(t, nil).WithDefaultTarget().
		WithStack("source", "one", "two").
		WithStack("destination")

	before := s.Stack("source").Head
	two := s.CommitBySubject("source", "two")
	require.NoError(t, s.Engine.MoveCommit(ctx, s.Stack("destination").ID, two.ID, s.Stack("source").ID))

	snapshot, err := s.Engine.Undo(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "move", snapshot.Command)

	s.ExpectStack("source", "two", "one")
	s.ExpectStack("destination")
	require.Equal(t, before, s.Stack("source").Head)

	testhelpers.ExpectFiles(t, s.Repo(), testhelpers.Must(s.Repo().GetRef(workspace.DefaultBranch)),
		[]string{"README.md", "one.txt", "two.txt"})
}
