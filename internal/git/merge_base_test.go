package git_test

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"stackit.dev/stacks/testhelpers"
)

func TestLogUntil(t *testing.T) {
	scene := testhelpers.NewScene(t, nil)
	repo := scene.Repo

	root := testhelpers.Must(repo.CommitOnto(plumbing.ZeroHash, "root", map[string]string{"f": "0"}))
	one := testhelpers.Must(repo.CommitOnto(root, "one", map[string]string{"f": "1"}))
	two := testhelpers.Must(repo.CommitOnto(one, "two", map[string]string{"f": "2"}))
	side := testhelpers.Must(repo.CommitOnto(root, "side", map[string]string{"g": "1"}))

	t.Run("lists newest first excluding until", func(t *testing.T) {
		testhelpers.ExpectSubjects(t, repo, two, root, []string{"two", "one"})
	})

	t.Run("empty when head equals until", func(t *testing.T) {
		testhelpers.ExpectSubjects(t, repo, two, two, nil)
	})

	t.Run("zero until walks to the root", func(t *testing.T) {
		testhelpers.ExpectSubjects(t, repo, two, plumbing.ZeroHash, []string{"two", "one", "root"})
	})

	t.Run("until off the history is an error", func(t *testing.T) {
		_, err := repo.LogUntil(two, side)
		require.Error(t, err)
	})

	t.Run("merge base and ancestry", func(t *testing.T) {
		base, err := repo.MergeBase(two, side)
		require.NoError(t, err)
		require.Equal(t, root, base)

		ok, err := repo.IsAncestor(one, two)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = repo.IsAncestor(side, two)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = repo.IsAncestor(two, two)
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func TestRevList(t *testing.T) {
	scene := testhelpers.NewScene(t, nil)
	repo := scene.Repo

	root := testhelpers.Must(repo.CommitOnto(plumbing.ZeroHash, "root", map[string]string{"f": "0"}))
	main1 := testhelpers.Must(repo.CommitOnto(root, "main1", map[string]string{"f": "1"}))
	feature := testhelpers.Must(repo.CommitOnto(root, "feature", map[string]string{"g": "1"}))
	merge := testhelpers.Must(repo.MergeCommit(main1, feature, "merge"))

	commits, err := repo.RevList(merge, root)
	require.NoError(t, err)

	var subjects []string
	for _, c := range commits {
		subjects = append(subjects, c.Subject())
	}
	require.ElementsMatch(t, []string{"merge", "main1", "feature"}, subjects)

	commits, err = repo.RevList(merge, merge)
	require.NoError(t, err)
	require.Empty(t, commits)
}
