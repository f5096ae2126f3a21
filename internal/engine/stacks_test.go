package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackit.dev/stacks/internal/engine"
	stackserrors "stackit.dev/stacks/internal/errors"
	"stackit.dev/stacks/internal/git"
	"stackit.dev/stacks/internal/stack"
	"stackit.dev/stacks/internal/workspace"
	"stackit.dev/stacks/testhelpers"
	"stackit.dev/stacks/testhelpers/scenario"
)

func engineStackUpdate(name *string, allowRebasing *bool) engine.StackUpdate {
	return engine.StackUpdate{Name: name, AllowRebasing: allowRebasing}
}

func statuses(view engine.StackView) []string {
	out := make([]string, 0, len(view.Commits))
	for _, c := range view.Commits {
		out = append(out, c.Commit.Subject()+":"+c.Status.String())
	}
	return out
}

func TestSetDefaultTarget(t *testing.T) {
	ctx := context.Background()
	s := scenario.NewScenario(t, nil)

	_, err := s.Engine.CreateStack(ctx, "early")
	require.ErrorIs(t, err, stackserrors.ErrNoDefaultTarget)

	target, err := s.Engine.SetDefaultTarget(ctx, testhelpers.DefaultTargetRef)
	require.NoError(t, err)
	assert.Equal(t, testhelpers.DefaultTargetRef, target.Ref)
	assert.Equal(t, "origin", target.Remote)
	assert.Equal(t, testhelpers.Must(s.Repo().GetRef(testhelpers.DefaultTargetRef)), target.Base)

	branch, err := s.Repo().HeadBranch()
	require.NoError(t, err)
	require.Equal(t, workspace.DefaultBranch, branch)

	_, err = s.Engine.SetDefaultTarget(ctx, "refs/remotes/origin/missing")
	require.ErrorIs(t, err, stackserrors.ErrNotFound)
}

func TestStackLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget()
		st := s.CreateStack("feature")
		require.NotEmpty(t, st.ID)
		require.Equal(t, s.Base(), st.Head)
		require.True(t, st.AllowRebasing)

		_, err := s.Engine.CreateStack(ctx, "feature")
		require.Error(t, err)
		_, err = s.Engine.CreateStack(ctx, "   ")
		require.Error(t, err)
		_, err = s.Engine.CreateStack(ctx, "!!!")
		require.Error(t, err)

		byName, err := s.Engine.GetStack("feature")
		require.NoError(t, err)
		require.Equal(t, st.ID, byName.ID)
	})

	t.Run("update", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget()
		st := s.CreateStack("feature")
		s.CreateStack("other")

		name := "renamed"
		allow := false
		updated, err := s.Engine.UpdateStack(ctx, st.ID, engine.StackUpdate{
			Name:          &name,
			AllowRebasing: &allow,
			Upstream:      &stack.Upstream{Remote: "fork", Branch: "feature-branch"},
		})
		require.NoError(t, err)
		require.Equal(t, "renamed", updated.Name)
		require.False(t, updated.AllowRebasing)
		require.Equal(t, "refs/remotes/fork/feature-branch", updated.UpstreamRef())

		for _, invalid := range []string{"  ", "///"} {
			invalid := invalid
			_, err = s.Engine.UpdateStack(ctx, st.ID, engine.StackUpdate{Name: &invalid})
			require.Error(t, err, "%q", invalid)
		}
		require.Equal(t, st.ID, s.Stack("renamed").ID)

		taken := "other"
		_, err = s.Engine.UpdateStack(ctx, st.ID, engine.StackUpdate{Name: &taken})
		require.Error(t, err)
		require.Equal(t, "renamed", s.Stack("renamed").Name)
	})

	t.Run("delete", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().WithStack("full", "one").WithStack("empty")

		require.NoError(t, s.Engine.DeleteStack(ctx, s.Stack("empty").ID, false))

		err := s.Engine.DeleteStack(ctx, s.Stack("full").ID, false)
		require.ErrorIs(t, err, stackserrors.ErrStackNotEmpty)

		require.NoError(t, s.Engine.DeleteStack(ctx, s.Stack("full").ID, true))
		stacks, err := s.Engine.Store().List()
		require.NoError(t, err)
		require.Empty(t, stacks)

		ws := testhelpers.Must(s.Repo().GetRef(workspace.DefaultBranch))
		testhelpers.ExpectFiles(t, s.Repo(), ws, []string{"README.md"})
	})

	t.Run("series must name a commit in the stack", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().WithStack("s", "one")
		one := s.CommitBySubject("s", "one")

		require.NoError(t, s.Engine.AddSeries(ctx, s.Stack("s").ID, "part-1", one.ID))
		require.Error(t, s.Engine.AddSeries(ctx, s.Stack("s").ID, "part-1", one.ID))
		err := s.Engine.AddSeries(ctx, s.Stack("s").ID, "part-2", s.Base())
		require.ErrorIs(t, err, stackserrors.ErrNotFound)
		require.Equal(t, []stack.Series{{Name: "part-1", Head: one.Identity()}}, s.Stack("s").Series)
	})
}

func TestCreateCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on top of the stack with a change id", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().WithStack("a").WithStack("b")

		first := s.Commit("a", "add file", map[string]string{"file.txt": "1\n"})
		second, err := s.Engine.CreateCommit(ctx, s.Stack("a").ID, "change and remove", []git.FileChange{
			{Path: "file.txt", Content: []byte("2\n")},
			{Path: "README.md"},
		})
		require.NoError(t, err)

		require.Equal(t, second, s.Stack("a").Head)
		commit := testhelpers.Must(s.Repo().FindCommit(second))
		require.Equal(t, first, commit.Parents[0])
		_, ok := commit.ChangeID()
		require.True(t, ok)
		testhelpers.ExpectFiles(t, s.Repo(), second, []string{"file.txt"})
		testhelpers.ExpectFile(t, s.Repo(), second, "file.txt", "2\n")

		s.Commit("b", "other", map[string]string{"other.txt": "other\n"})
		ws := testhelpers.Must(s.Repo().GetRef(workspace.DefaultBranch))
		testhelpers.ExpectFiles(t, s.Repo(), ws, []string{"file.txt", "other.txt"})
	})

	t.Run("empty message", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().WithStack("a")
		_, err := s.Engine.CreateCommit(ctx, s.Stack("a").ID, "\n", nil)
		require.ErrorIs(t, err, stackserrors.ErrEmptyCommitMessage)
		s.ExpectStack("a")
	})
}

func TestListStacks(t *testing.T) {
	ctx := context.Background()

	t.Run("local, remote, then integrated", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().WithStack("s", "one", "two").WithStack("other", "o1")

		views, err := s.Engine.ListStacks(ctx)
		require.NoError(t, err)
		require.Len(t, views, 2)
		require.Equal(t, "s", views[0].Stack.Name)
		require.Equal(t, []string{"two:local", "one:local"}, statuses(views[0]))
		require.Equal(t, []string{"o1:local"}, statuses(views[1]))

		s.Push("s")
		views, err = s.Engine.ListStacks(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"two:remote", "one:remote"}, statuses(views[0]))

		s.Commit("s", "three", map[string]string{"three.txt": "three\n"})
		s.MergeIntoTarget("s")

		views, err = s.Engine.ListStacks(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"three:local", "two:integrated", "one:integrated"}, statuses(views[0]))
		require.Equal(t, []string{"o1:local"}, statuses(views[1]))
	})

	t.Run("requires a default target", func(t *testing.T) {
		s := scenario.NewScenario(t, nil)
		_, err := s.Engine.ListStacks(ctx)
		require.ErrorIs(t, err, stackserrors.ErrNoDefaultTarget)
	})

	t.Run("canceled context", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().WithStack("s", "one")
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Engine.ListStacks(canceled)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestPushStack(t *testing.T) {
	ctx := context.Background()

	t.Run("pushes to a branch named after the stack", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().WithStack("feature", "one")
		s.Push("feature")

		st := s.Stack("feature")
		require.Equal(t, &stack.Upstream{Remote: "origin", Branch: "feature"}, st.Upstream)
		require.Equal(t, st.Head, st.UpstreamHead)
		require.Equal(t, st.Head, testhelpers.Must(s.Repo().GetRef("refs/remotes/origin/feature")))
		require.Equal(t, scenario.Push{
			Remote:   "origin",
			Refspecs: []string{stack.HeadRefPrefix + st.ID + ":refs/heads/feature"},
		}, s.Pusher.Last())
	})

	t.Run("refuses a force push on a non-rebasing stack", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().WithStack("feature", "one", "two")
		s.Push("feature")

		one := s.CommitBySubject("feature", "one")
		_, err := s.Engine.UpdateCommitMessage(ctx, s.Stack("feature").ID, one.ID, "reworded")
		require.NoError(t, err)

		allow := false
		_, err = s.Engine.UpdateStack(ctx, s.Stack("feature").ID, engine.StackUpdate{AllowRebasing: &allow})
		require.NoError(t, err)

		err = s.Engine.PushStack(ctx, s.Stack("feature").ID)
		require.ErrorIs(t, err, stackserrors.ErrForcePushNotAllowed)
		require.Len(t, s.Pusher.Pushes, 1)
	})

	t.Run("branch name is derived from the stack name", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().WithStack("my feature", "one")
		s.Push("my feature")
		require.Equal(t, "my-feature", s.Stack("my feature").Upstream.Branch)
		require.Equal(t, []string{stack.HeadRefPrefix + s.Stack("my feature").ID + ":refs/heads/my-feature"}, s.Pusher.Last().Refspecs)
	})

	t.Run("push failures leave the stack untouched", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().WithStack("feature", "one")
		s.Pusher.Err = errors.New("remote hung up")

		err := s.Engine.PushStack(ctx, s.Stack("feature").ID)
		require.ErrorContains(t, err, "remote hung up")
		require.Nil(t, s.Stack("feature").Upstream)
	})
}

func TestUndo(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing to undo", func(t *testing.T) {
		s := scenario.NewScenario(t, nil)
		_, err := s.Engine.Undo(ctx, "")
		require.ErrorIs(t, err, stackserrors.ErrNothingToUndo)
	})

	t.Run("restores a reword", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().WithStack("s", "one")
		head := s.Stack("s").Head

		_, err := s.Engine.UpdateCommitMessage(ctx, s.Stack("s").ID, head, "reworded")
		require.NoError(t, err)
		s.ExpectStack("s", "reworded")

		_, err = s.Engine.Undo(ctx, "")
		require.NoError(t, err)
		s.ExpectStack("s", "one")
		require.Equal(t, head, s.Stack("s").Head)
	})

	t.Run("restores a deleted stack by id", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithDefaultTarget().WithStack("s", "one")
		require.NoError(t, s.Engine.DeleteStack(ctx, s.Stack("s").ID, true))

		snapshots, err := s.Engine.Snapshots()
		require.NoError(t, err)
		require.Equal(t, "stack delete", snapshots[0].Command)

		_, err = s.Engine.Undo(ctx, snapshots[0].ID)
		require.NoError(t, err)
		s.ExpectStack("s", "one")
	})
}
