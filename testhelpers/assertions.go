// Package testhelpers provides testing utilities for the stacks CLI,
// including an in-memory scene, history builders, and custom assertions.
package testhelpers

import (
	"sort"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"
)

// Must is a generic helper function that panics if err is not nil,
// otherwise returns the value. This is useful for test setup code
// where errors are not expected and should halt execution immediately.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// ExpectSubjects asserts the commit subjects from head down to until, newest first.
func ExpectSubjects(t *testing.T, repo *GitRepo, head, until plumbing.Hash, expected []string) {
	t.Helper()

	subjects, err := repo.Subjects(head, until)
	require.NoError(t, err, "Failed to list commits")
	if len(expected) == 0 {
		require.Empty(t, subjects)
		return
	}
	require.Equal(t, expected, subjects, "Commits do not match")
}

// ExpectFiles asserts the sorted set of paths in a commit's tree.
func ExpectFiles(t *testing.T, repo *GitRepo, commit plumbing.Hash, expected []string) {
	t.Helper()

	files, err := repo.Files(commit)
	require.NoError(t, err)
	if len(expected) == 0 {
		require.Empty(t, files)
		return
	}
	sort.Strings(files)
	sort.Strings(expected)
	require.Equal(t, expected, files, "Files do not match")
}

// ExpectFile asserts the content of a path in a commit's tree.
func ExpectFile(t *testing.T, repo *GitRepo, commit plumbing.Hash, path, expected string) {
	t.Helper()

	content, err := repo.FileAt(commit, path)
	require.NoError(t, err)
	require.Equal(t, expected, content, "Content of %s does not match", path)
}
