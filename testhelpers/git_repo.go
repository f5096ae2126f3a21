package testhelpers

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/uuid"

	"stackit.dev/stacks/internal/git"
)

const (
	// DefaultTargetBranch is the local trunk created by BasicSceneSetup
	DefaultTargetBranch = "refs/heads/main"
	// DefaultTargetRef is the remote-tracking ref used as the default target
	DefaultTargetRef = "refs/remotes/origin/main"
)

// GitRepo wraps a repository with helpers that build history directly in the
// object database.
type GitRepo struct {
	*git.Repository
	clock time.Time
}

func newGitRepo(repo *git.Repository) *GitRepo {
	return &GitRepo{
		Repository: repo,
		clock:      time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Signature returns a test signature, advancing the clock so that every
// commit gets a distinct timestamp.
func (r *GitRepo) Signature() object.Signature {
	r.clock = r.clock.Add(time.Minute)
	return object.Signature{Name: "Test User", Email: "test@example.com", When: r.clock}
}

// CommitFiles writes a commit on top of ref (which may not exist yet) that
// sets the given files, and advances ref to it. The commit gets a fresh
// change id.
func (r *GitRepo) CommitFiles(ref, message string, files map[string]string) (plumbing.Hash, error) {
	parent, err := r.GetRef(ref)
	if err != nil {
		parent = plumbing.ZeroHash
	}
	hash, err := r.CommitOnto(parent, message, files)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return hash, r.UpdateRef(ref, hash)
}

// CommitOnto writes a commit with the given parent (zero for a root commit)
// without moving any ref.
func (r *GitRepo) CommitOnto(parent plumbing.Hash, message string, files map[string]string) (plumbing.Hash, error) {
	c, err := r.newCommit(parent, message, files)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	c.SetHeader(git.HeaderChangeID, []byte(uuid.NewString()))
	return r.WriteCommit(c)
}

// CommitWithoutChangeID is CommitOnto for commits made by plain git
func (r *GitRepo) CommitWithoutChangeID(parent plumbing.Hash, message string, files map[string]string) (plumbing.Hash, error) {
	c, err := r.newCommit(parent, message, files)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return r.WriteCommit(c)
}

// MergeCommit writes a two-parent commit whose tree is the first parent's
func (r *GitRepo) MergeCommit(first, second plumbing.Hash, message string) (plumbing.Hash, error) {
	parent, err := r.FindCommit(first)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	sig := r.Signature()
	c := &git.Commit{
		Tree:      parent.Tree,
		Parents:   []plumbing.Hash{first, second},
		Author:    sig,
		Committer: sig,
		Message:   []byte(message + "\n"),
	}
	c.SetHeader(git.HeaderChangeID, []byte(uuid.NewString()))
	return r.WriteCommit(c)
}

func (r *GitRepo) newCommit(parent plumbing.Hash, message string, files map[string]string) (*git.Commit, error) {
	base := plumbing.ZeroHash
	var parents []plumbing.Hash
	if !parent.IsZero() {
		p, err := r.FindCommit(parent)
		if err != nil {
			return nil, err
		}
		base = p.Tree
		parents = []plumbing.Hash{parent}
	}

	changes := make([]git.FileChange, 0, len(files))
	for path, content := range files {
		changes = append(changes, git.FileChange{Path: path, Content: []byte(content)})
	}
	tree, err := r.OverlayTree(base, changes)
	if err != nil {
		return nil, err
	}

	sig := r.Signature()
	return &git.Commit{
		Tree:      tree,
		Parents:   parents,
		Author:    sig,
		Committer: sig,
		Message:   []byte(message + "\n"),
	}, nil
}

// Subjects lists commit subjects from head down to until, newest first
func (r *GitRepo) Subjects(head, until plumbing.Hash) ([]string, error) {
	commits, err := r.LogUntil(head, until)
	if err != nil {
		return nil, err
	}
	subjects := make([]string, 0, len(commits))
	for _, c := range commits {
		subjects = append(subjects, c.Subject())
	}
	return subjects, nil
}

// FileAt returns the content of path in a commit's tree
func (r *GitRepo) FileAt(commit plumbing.Hash, path string) (string, error) {
	c, err := r.FindCommit(commit)
	if err != nil {
		return "", err
	}
	entries, err := r.FlattenTree(c.Tree)
	if err != nil {
		return "", err
	}
	entry, ok := entries[path]
	if !ok {
		return "", fmt.Errorf("%s not found in %s", path, commit)
	}
	data, err := r.ReadBlob(entry.Hash)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Files lists every path in a commit's tree
func (r *GitRepo) Files(commit plumbing.Hash) ([]string, error) {
	c, err := r.FindCommit(commit)
	if err != nil {
		return nil, err
	}
	entries, err := r.FlattenTree(c.Tree)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for p := range entries {
		paths = append(paths, p)
	}
	return paths, nil
}
