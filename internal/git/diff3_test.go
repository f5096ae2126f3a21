package git_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stackit.dev/stacks/internal/git"
)

func TestMerge3(t *testing.T) {
	labels := git.MergeLabels{Ours: "ours", Theirs: "theirs"}

	t.Run("takes non-overlapping edits from both sides", func(t *testing.T) {
		base := "a\nb\nc\nd\ne\n"
		ours := "A\nb\nc\nd\ne\n"
		theirs := "a\nb\nc\nd\nE\n"

		merged, conflicted := git.Merge3([]byte(base), []byte(ours), []byte(theirs), labels)
		require.False(t, conflicted)
		require.Equal(t, "A\nb\nc\nd\nE\n", string(merged))
	})

	t.Run("identical edits merge cleanly", func(t *testing.T) {
		merged, conflicted := git.Merge3([]byte("a\n"), []byte("b\n"), []byte("b\n"), labels)
		require.False(t, conflicted)
		require.Equal(t, "b\n", string(merged))
	})

	t.Run("overlapping edits produce markers", func(t *testing.T) {
		merged, conflicted := git.Merge3([]byte("a\nb\nc\n"), []byte("a\nours\nc\n"), []byte("a\ntheirs\nc\n"), labels)
		require.True(t, conflicted)
		require.Equal(t, "a\n<<<<<<< ours\nours\n=======\ntheirs\n>>>>>>> theirs\nc\n", string(merged))
	})

	t.Run("add/add with different content conflicts", func(t *testing.T) {
		merged, conflicted := git.Merge3(nil, []byte("one"), []byte("two"), labels)
		require.True(t, conflicted)
		require.Equal(t, "<<<<<<< ours\none\n=======\ntwo\n>>>>>>> theirs\n", string(merged))
	})

	t.Run("default labels", func(t *testing.T) {
		merged, conflicted := git.Merge3([]byte("x\n"), []byte("y\n"), []byte("z\n"), git.MergeLabels{})
		require.True(t, conflicted)
		require.Contains(t, string(merged), "<<<<<<< ours\n")
		require.Contains(t, string(merged), ">>>>>>> theirs\n")
	})
}

func TestIsBinary(t *testing.T) {
	require.False(t, git.IsBinary([]byte("plain text\n")))
	require.True(t, git.IsBinary([]byte{'a', 0, 'b'}))
	require.False(t, git.IsBinary(nil))
}
