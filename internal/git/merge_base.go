package git

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	stackserrors "stackit.dev/stacks/internal/errors"
)

// ResolveCommitID resolves a revision (ref name, short or full hash) to a commit hash
func (r *Repository) ResolveCommitID(rev string) (plumbing.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hash, err := r.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, stackserrors.NewCommitNotFoundError(rev)
	}
	return *hash, nil
}

// MergeBase returns the best common ancestor of two commits
func (r *Repository) MergeBase(a, b plumbing.Hash) (plumbing.Hash, error) {
	if a == b {
		return a, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	commitA, err := r.commitObject(a)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	commitB, err := r.commitObject(b)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	bases, err := commitA.MergeBase(commitB)
	if err != nil {
		return plumbing.ZeroHash, wrap("merge base", err)
	}
	if len(bases) == 0 {
		return plumbing.ZeroHash, fmt.Errorf("no merge base found between %s and %s", a, b)
	}
	return bases[0].Hash, nil
}

// IsAncestor checks if ancestor is reachable from descendant. A commit is its own ancestor.
func (r *Repository) IsAncestor(ancestor, descendant plumbing.Hash) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ancestorCommit, err := r.commitObject(ancestor)
	if err != nil {
		return false, err
	}
	descendantCommit, err := r.commitObject(descendant)
	if err != nil {
		return false, err
	}

	ok, err := ancestorCommit.IsAncestor(descendantCommit)
	if err != nil {
		return false, wrap("ancestry check", err)
	}
	return ok, nil
}

// LogUntil lists commits from head down to, but excluding, until, newest first.
// Stacks are linear, so the walk follows first parents. A zero until walks to
// the root. It is an error for a non-zero until to be missing from the
// first-parent chain.
func (r *Repository) LogUntil(head, until plumbing.Hash) ([]*Commit, error) {
	var commits []*Commit
	seen := make(map[plumbing.Hash]bool)

	current := head
	for current != until {
		if current.IsZero() {
			if until.IsZero() {
				break
			}
			return nil, fmt.Errorf("%s is not on the first-parent history of %s", until, head)
		}
		if seen[current] {
			return nil, fmt.Errorf("cycle detected at %s", current)
		}
		seen[current] = true

		commit, err := r.FindCommit(current)
		if err != nil {
			return nil, err
		}
		commits = append(commits, commit)

		if len(commit.Parents) == 0 {
			current = plumbing.ZeroHash
		} else {
			current = commit.Parents[0]
		}
	}
	return commits, nil
}

// commitObject loads a go-git commit object; callers hold r.mu
func (r *Repository) commitObject(id plumbing.Hash) (*object.Commit, error) {
	commit, err := r.CommitObject(id)
	if err != nil {
		if isNotFound(err) {
			return nil, stackserrors.NewCommitNotFoundError(id.String())
		}
		return nil, wrap("read commit", err)
	}
	return commit, nil
}

// RevList lists every commit reachable from head through any parent,
// without descending into the stop commits. Order is breadth-first from
// head.
func (r *Repository) RevList(head plumbing.Hash, stop ...plumbing.Hash) ([]*Commit, error) {
	seen := make(map[plumbing.Hash]bool, len(stop))
	for _, s := range stop {
		seen[s] = true
	}

	var commits []*Commit
	queue := []plumbing.Hash{head}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.IsZero() || seen[current] {
			continue
		}
		seen[current] = true

		commit, err := r.FindCommit(current)
		if err != nil {
			return nil, err
		}
		commits = append(commits, commit)
		queue = append(queue, commit.Parents...)
	}
	return commits, nil
}
