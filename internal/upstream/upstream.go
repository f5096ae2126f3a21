// Package upstream classifies stack commits by how far they have travelled:
// local only, pushed to the stack's remote branch, or integrated into the
// default target.
package upstream

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	stackserrors "stackit.dev/stacks/internal/errors"
	"stackit.dev/stacks/internal/git"
	"stackit.dev/stacks/internal/stack"
)

// Status is where a commit has been seen
type Status int

const (
	// LocalOnly commits exist only in the local stack
	LocalOnly Status = iota
	// Remote commits are on the stack's remote branch but not in the target
	Remote
	// Integrated commits are already part of the default target
	Integrated
)

func (s Status) String() string {
	switch s {
	case LocalOnly:
		return "local"
	case Remote:
		return "remote"
	case Integrated:
		return "integrated"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ClassifiedCommit is a stack commit with its status
type ClassifiedCommit struct {
	Commit *git.Commit
	Status Status
}

// commitSet matches commits by change id or, lacking one, by hash
type commitSet struct {
	changeIDs map[string]bool
	hashes    map[plumbing.Hash]bool
}

func newCommitSet(commits []*git.Commit) *commitSet {
	set := &commitSet{
		changeIDs: make(map[string]bool, len(commits)),
		hashes:    make(map[plumbing.Hash]bool, len(commits)),
	}
	for _, c := range commits {
		set.hashes[c.ID] = true
		if id, ok := c.ChangeID(); ok {
			set.changeIDs[id] = true
		}
	}
	return set
}

func (s *commitSet) contains(c *git.Commit) bool {
	if s == nil {
		return false
	}
	if s.hashes[c.ID] {
		return true
	}
	id, ok := c.ChangeID()
	return ok && s.changeIDs[id]
}

// Classify walks the stack newest first down to its merge base with the
// recorded target and classifies each commit. A commit is integrated when the
// live target gained an equivalent commit since the recorded base, remote
// when the stack's tracking ref has one, and local otherwise. Each commit is
// judged on its own.
func Classify(repo *git.Repository, target *stack.Target, st *stack.Stack) ([]ClassifiedCommit, error) {
	base, err := recordedBase(repo, target)
	if err != nil {
		return nil, err
	}

	mergeBase, err := repo.MergeBase(st.Head, base)
	if err != nil {
		return nil, fmt.Errorf("failed to find merge base for stack %s: %w", st.Name, err)
	}
	commits, err := repo.LogUntil(st.Head, mergeBase)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, nil
	}

	integrated, err := integratedCommits(repo, target, base)
	if err != nil {
		return nil, err
	}
	pushed, err := pushedCommits(repo, st, mergeBase)
	if err != nil {
		return nil, err
	}

	classified := make([]ClassifiedCommit, 0, len(commits))
	for _, c := range commits {
		status := LocalOnly
		switch {
		case integrated.contains(c):
			status = Integrated
		case pushed.contains(c):
			status = Remote
		}
		classified = append(classified, ClassifiedCommit{Commit: c, Status: status})
	}
	return classified, nil
}

// IsPushed reports whether the stack's tracking ref holds an equivalent of commit
func IsPushed(repo *git.Repository, target *stack.Target, st *stack.Stack, commit *git.Commit) (bool, error) {
	base, err := recordedBase(repo, target)
	if err != nil {
		return false, err
	}
	mergeBase, err := repo.MergeBase(st.Head, base)
	if err != nil {
		return false, err
	}
	pushed, err := pushedCommits(repo, st, mergeBase)
	if err != nil {
		return false, err
	}
	return pushed.contains(commit), nil
}

// RequiresForce reports whether pushing the stack would rewrite history on
// its remote branch
func RequiresForce(repo *git.Repository, st *stack.Stack) (bool, error) {
	remoteHead, err := upstreamHead(repo, st)
	if err != nil || remoteHead.IsZero() {
		return false, err
	}
	if remoteHead == st.Head {
		return false, nil
	}

	if _, err := repo.FindCommit(remoteHead); err != nil {
		if stackserrors.IsNotFound(err) {
			return true, nil
		}
		return false, err
	}
	ok, err := repo.IsAncestor(remoteHead, st.Head)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func recordedBase(repo *git.Repository, target *stack.Target) (plumbing.Hash, error) {
	if !target.Base.IsZero() {
		return target.Base, nil
	}
	return repo.GetRef(target.Ref)
}

// integratedCommits collects what the live target gained since base
func integratedCommits(repo *git.Repository, target *stack.Target, base plumbing.Hash) (*commitSet, error) {
	live, err := repo.GetRef(target.Ref)
	if err != nil {
		if stackserrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if live == base {
		return nil, nil
	}
	commits, err := repo.RevList(live, base)
	if err != nil {
		return nil, fmt.Errorf("failed to list target history: %w", err)
	}
	return newCommitSet(commits), nil
}

// pushedCommits collects the stack's remote branch down to mergeBase
func pushedCommits(repo *git.Repository, st *stack.Stack, mergeBase plumbing.Hash) (*commitSet, error) {
	remoteHead, err := upstreamHead(repo, st)
	if err != nil || remoteHead.IsZero() {
		return nil, err
	}
	if _, err := repo.FindCommit(remoteHead); err != nil {
		if stackserrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	commits, err := repo.RevList(remoteHead, mergeBase)
	if err != nil {
		return nil, fmt.Errorf("failed to list upstream of %s: %w", st.Name, err)
	}
	return newCommitSet(commits), nil
}

// upstreamHead resolves the tracking ref, falling back to the last pushed head
func upstreamHead(repo *git.Repository, st *stack.Stack) (plumbing.Hash, error) {
	if st.Upstream == nil {
		return plumbing.ZeroHash, nil
	}
	head, err := repo.GetRef(st.UpstreamRef())
	if err == nil {
		return head, nil
	}
	if stackserrors.IsNotFound(err) {
		return st.UpstreamHead, nil
	}
	return plumbing.ZeroHash, err
}
