// Package workspace maintains the synthetic commit that merges every stack
// head so that a single working directory shows all stacks at once.
package workspace

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"stackit.dev/stacks/internal/access"
	"stackit.dev/stacks/internal/git"
	"stackit.dev/stacks/internal/stack"
)

// DefaultBranch is the branch the workspace commit is checked out on
const DefaultBranch = "refs/heads/stacks/workspace"

const commitMessage = `stacks workspace

This commit is rebuilt after every stack operation. Its parents are the
heads of all stacks. Do not commit on top of it directly.
`

// Options control how the workspace commit is written
type Options struct {
	// Branch defaults to DefaultBranch
	Branch    string
	Signature object.Signature
}

// Result describes a workspace update
type Result struct {
	// Commit is the new workspace commit
	Commit plumbing.Hash
	// Kept lists paths whose local changes were left in place instead of
	// the workspace content
	Kept []string
}

// Update rebuilds the workspace commit from the stacks, in order, on top of
// the target commit, moves the workspace branch to it and checks it out.
// Each stack contributes its changes relative to its merge base with the
// target; later stacks win where paths overlap.
//
// The checkout moves the working tree from the previous HEAD commit. Local
// edits and untracked files are preserved; paths with local edits that the
// new workspace also changes keep the local content and are reported in
// Result.Kept.
func Update(repo *git.Repository, perm *access.WorktreeWritePermission, target plumbing.Hash, stacks []*stack.Stack, opts Options) (*Result, error) {
	if perm == nil {
		return nil, errors.New("updating the workspace requires write permission")
	}
	branch := opts.Branch
	if branch == "" {
		branch = DefaultBranch
	}

	id, err := Build(repo, target, stacks, opts.Signature)
	if err != nil {
		return nil, err
	}
	previous, err := repo.HeadCommit()
	if err != nil {
		return nil, err
	}

	if err := repo.UpdateRef(branch, id); err != nil {
		return nil, err
	}
	if err := repo.SetSymbolicRef(plumbing.HEAD.String(), branch); err != nil {
		return nil, err
	}
	switched, err := repo.SwitchTree(previous, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check out workspace: %w", err)
	}
	return &Result{Commit: id, Kept: switched.Kept}, nil
}

// Build writes the workspace commit without moving any ref
func Build(repo *git.Repository, target plumbing.Hash, stacks []*stack.Stack, sig object.Signature) (plumbing.Hash, error) {
	targetCommit, err := repo.FindCommit(target)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to resolve workspace target: %w", err)
	}
	entries, err := repo.FlattenTree(targetCommit.Tree)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	parents := make([]plumbing.Hash, 0, len(stacks))
	for _, st := range stacks {
		parents = append(parents, st.Head)
		if err := overlayStack(repo, target, st, entries); err != nil {
			return plumbing.ZeroHash, fmt.Errorf("failed to apply stack %s: %w", st.Name, err)
		}
	}
	if len(parents) == 0 {
		parents = append(parents, target)
	}

	tree, err := repo.BuildTree(entries)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	return repo.WriteCommit(&git.Commit{
		Tree:      tree,
		Parents:   parents,
		Author:    sig,
		Committer: sig,
		Message:   []byte(commitMessage),
	})
}

// overlayStack applies the difference between the stack's merge base with
// target and its tree onto entries
func overlayStack(repo *git.Repository, target plumbing.Hash, st *stack.Stack, entries map[string]object.TreeEntry) error {
	base, err := repo.MergeBase(st.Head, target)
	if err != nil {
		return err
	}
	if base == st.Head {
		return nil
	}

	baseCommit, err := repo.FindCommit(base)
	if err != nil {
		return err
	}
	baseEntries, err := repo.FlattenTree(baseCommit.Tree)
	if err != nil {
		return err
	}

	tree := st.Tree
	if tree.IsZero() {
		head, err := repo.FindCommit(st.Head)
		if err != nil {
			return err
		}
		tree = head.Tree
	}
	stackEntries, err := repo.FlattenTree(tree)
	if err != nil {
		return err
	}

	for path, entry := range stackEntries {
		if old, ok := baseEntries[path]; ok && old.Hash == entry.Hash && old.Mode == entry.Mode {
			continue
		}
		entries[path] = entry
	}
	for path := range baseEntries {
		if _, ok := stackEntries[path]; !ok {
			delete(entries, path)
		}
	}
	return nil
}
