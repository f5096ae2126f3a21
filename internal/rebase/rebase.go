// Package rebase replays existing commits onto new parents.
//
// Conflicts never abort a rebase. A commit whose changes do not apply
// cleanly is written with conflict markers in its tree and a conflicted
// header, and later commits are replayed on top of it.
package rebase

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	"stackit.dev/stacks/internal/git"
)

// Conflict describes a commit that was written with conflict markers
type Conflict struct {
	Original  plumbing.Hash
	Rewritten plumbing.Hash
	Paths     []string
}

// Result is the outcome of CherryRebaseGroup
type Result struct {
	// Head is the last replayed commit, or the base for an empty group
	Head plumbing.Hash
	// Commits maps each original commit to its replacement
	Commits map[plumbing.Hash]plumbing.Hash
	// Conflicts lists the commits written with conflict markers, oldest first
	Conflicts []Conflict
}

// ConflictedPaths returns every path conflicted anywhere in the group
func (r *Result) ConflictedPaths() []string {
	seen := make(map[string]bool)
	var paths []string
	for _, c := range r.Conflicts {
		for _, p := range c.Paths {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	return paths
}

// CherryRebaseGroup replays ids, oldest first, each onto the result of the
// previous one starting at base. Message, authorship and change id are kept.
// A commit whose parent is already the right one is reused as is, so an
// empty group returns base itself.
func CherryRebaseGroup(repo *git.Repository, base plumbing.Hash, ids []plumbing.Hash) (*Result, error) {
	if _, err := repo.FindCommit(base); err != nil {
		return nil, fmt.Errorf("failed to resolve rebase base: %w", err)
	}

	result := &Result{
		Head:    base,
		Commits: make(map[plumbing.Hash]plumbing.Hash, len(ids)),
	}
	for _, id := range ids {
		commit, err := repo.FindCommit(id)
		if err != nil {
			return nil, err
		}

		rewritten, paths, err := cherryPick(repo, commit, result.Head)
		if err != nil {
			return nil, fmt.Errorf("failed to rebase %s: %w", id, err)
		}
		if len(paths) > 0 {
			result.Conflicts = append(result.Conflicts, Conflict{Original: id, Rewritten: rewritten, Paths: paths})
		}
		result.Commits[id] = rewritten
		result.Head = rewritten
	}
	return result, nil
}

// cherryPick applies commit's changes relative to its first parent onto onto
func cherryPick(repo *git.Repository, commit *git.Commit, onto plumbing.Hash) (plumbing.Hash, []string, error) {
	if len(commit.Parents) == 1 && commit.Parents[0] == onto {
		return commit.ID, nil, nil
	}

	ontoCommit, err := repo.FindCommit(onto)
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}

	baseTree := plumbing.ZeroHash
	if len(commit.Parents) > 0 {
		parent, err := repo.FindCommit(commit.Parents[0])
		if err != nil {
			return plumbing.ZeroHash, nil, err
		}
		baseTree = parent.Tree
	}

	merged, err := repo.MergeTrees(baseTree, ontoCommit.Tree, commit.Tree, git.MergeLabels{
		Ours:   "new base " + onto.String()[:7],
		Theirs: commit.ID.String()[:7] + " (" + commit.Subject() + ")",
	})
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}

	rewritten := commit.Clone()
	rewritten.Parents = []plumbing.Hash{onto}
	rewritten.Tree = merged.Tree
	rewritten.RemoveHeader(git.HeaderSignature)
	if merged.HasConflicts() {
		rewritten.SetConflicted(len(merged.Conflicts))
	}

	id, err := repo.WriteCommit(rewritten)
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}
	return id, merged.Conflicts, nil
}

// Reword writes a copy of a commit with a new message. Everything else,
// including parents and tree, is unchanged.
func Reword(repo *git.Repository, id plumbing.Hash, message []byte) (plumbing.Hash, error) {
	commit, err := repo.FindCommit(id)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	rewritten := commit.Clone()
	rewritten.Message = message
	rewritten.RemoveHeader(git.HeaderSignature)
	return repo.WriteCommit(rewritten)
}
