package git_test

import (
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"stackit.dev/stacks/internal/git"
	"stackit.dev/stacks/testhelpers"
)

func TestCommitCodec(t *testing.T) {
	sig := object.Signature{Name: "A U Thor", Email: "author@example.com", When: time.Unix(1700000000, 0).In(time.FixedZone("", 3600))}

	t.Run("keeps extra headers through a write and read", func(t *testing.T) {
		scene := testhelpers.NewScene(t, nil)
		tree, err := scene.Repo.EmptyTree()
		require.NoError(t, err)

		c := &git.Commit{
			Tree:      tree,
			Author:    sig,
			Committer: sig,
			Message:   []byte("subject\n\nbody\n"),
		}
		c.SetHeader(git.HeaderChangeID, []byte("abc-123"))
		c.SetConflicted(2)

		id, err := scene.Repo.WriteCommit(c)
		require.NoError(t, err)

		got, err := scene.Repo.FindCommit(id)
		require.NoError(t, err)
		changeID, ok := got.ChangeID()
		require.True(t, ok)
		require.Equal(t, "abc-123", changeID)
		n, ok := got.ConflictedFiles()
		require.True(t, ok)
		require.Equal(t, 2, n)
		require.Equal(t, "subject", got.Subject())
		require.Equal(t, "subject\n\nbody\n", string(got.MessageBytes()))
		require.Equal(t, sig.Email, got.Author.Email)
		require.True(t, sig.When.Equal(got.Author.When))
	})

	t.Run("is readable by go-git", func(t *testing.T) {
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
		head, err := scene.Repo.GetRef(testhelpers.DefaultTargetBranch)
		require.NoError(t, err)

		commit, err := scene.Repo.CommitObject(head)
		require.NoError(t, err)
		require.Equal(t, "init\n", commit.Message)
	})

	t.Run("round trips multi-line headers", func(t *testing.T) {
		c := &git.Commit{
			Tree:      plumbing.NewHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904"),
			Author:    sig,
			Committer: sig,
			Message:   []byte("signed\n"),
		}
		c.SetHeader(git.HeaderSignature, []byte("-----BEGIN PGP SIGNATURE-----\n\nabc\n-----END PGP SIGNATURE-----"))

		data, err := git.EncodeCommit(c)
		require.NoError(t, err)
		decoded, err := git.DecodeCommit(plumbing.ZeroHash, data)
		require.NoError(t, err)

		require.True(t, decoded.IsSigned())
		require.Equal(t, c.Headers, decoded.Headers)
		require.Equal(t, "signed\n", string(decoded.Message))
	})

	t.Run("rejects commits without a tree", func(t *testing.T) {
		_, err := git.DecodeCommit(plumbing.ZeroHash, []byte("author x <x> 0 +0000\n\nmsg\n"))
		require.Error(t, err)
	})
}

func TestCommitHeaders(t *testing.T) {
	t.Run("change id is absent when missing or invalid", func(t *testing.T) {
		c := &git.Commit{}
		_, ok := c.ChangeID()
		require.False(t, ok)

		c.SetHeader(git.HeaderChangeID, []byte{0xff, 0xfe})
		_, ok = c.ChangeID()
		require.False(t, ok)

		c.SetHeader(git.HeaderChangeID, nil)
		_, ok = c.ChangeID()
		require.False(t, ok)
	})

	t.Run("identity falls back to the hash", func(t *testing.T) {
		c := &git.Commit{ID: plumbing.NewHash("1111111111111111111111111111111111111111")}
		require.Equal(t, c.ID.String(), c.Identity())

		c.SetHeader(git.HeaderChangeID, []byte("change"))
		require.Equal(t, "change", c.Identity())
	})

	t.Run("remove header drops the signature", func(t *testing.T) {
		c := &git.Commit{}
		c.SetHeader(git.HeaderSignature, []byte("sig"))
		c.SetHeader(git.HeaderChangeID, []byte("keep"))
		c.RemoveHeader(git.HeaderSignature)

		require.False(t, c.IsSigned())
		require.Len(t, c.Headers, 1)
	})

	t.Run("clone does not share headers", func(t *testing.T) {
		c := &git.Commit{ID: plumbing.NewHash("2222222222222222222222222222222222222222"), Parents: []plumbing.Hash{plumbing.ZeroHash}}
		c.SetHeader(git.HeaderChangeID, []byte("a"))

		clone := c.Clone()
		clone.SetHeader(git.HeaderChangeID, []byte("b"))

		id, _ := c.ChangeID()
		require.Equal(t, "a", id)
		require.True(t, clone.ID.IsZero())
		require.Len(t, clone.Parents, 1)
	})

	t.Run("conflicted counts", func(t *testing.T) {
		c := &git.Commit{}
		require.False(t, c.IsConflicted())
		c.SetConflicted(3)
		require.True(t, c.IsConflicted())
		n, ok := c.ConflictedFiles()
		require.True(t, ok)
		require.Equal(t, 3, n)
	})
}
