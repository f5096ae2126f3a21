package engine

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/google/uuid"

	stackserrors "stackit.dev/stacks/internal/errors"
	"stackit.dev/stacks/internal/git"
	"stackit.dev/stacks/internal/rebase"
	"stackit.dev/stacks/internal/upstream"
)

// CreateCommit writes a new commit on top of a stack. Its tree is the
// stack's tree with changes applied and it gets a fresh change id.
func (e *Engine) CreateCommit(ctx context.Context, stackID, message string, changes []git.FileChange) (plumbing.Hash, error) {
	msg := normalizeMessage(message)
	if msg == nil {
		return plumbing.ZeroHash, stackserrors.ErrEmptyCommitMessage
	}

	perm, release, err := e.acquire(ctx)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	defer release()

	if err := e.store.AssureResolved(); err != nil {
		return plumbing.ZeroHash, err
	}
	st, err := e.store.Get(stackID)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	baseTree := st.Tree
	if baseTree.IsZero() {
		head, err := e.repo.FindCommit(st.Head)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		baseTree = head.Tree
	}
	tree, err := e.repo.OverlayTree(baseTree, changes)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to build commit tree: %w", err)
	}

	if err := e.snapshot("commit", st.Name); err != nil {
		return plumbing.ZeroHash, err
	}

	sig := e.signature()
	commit := &git.Commit{
		Tree:      tree,
		Parents:   []plumbing.Hash{st.Head},
		Author:    sig,
		Committer: sig,
		Message:   msg,
	}
	commit.SetHeader(git.HeaderChangeID, []byte(uuid.NewString()))
	id, err := e.repo.WriteCommit(commit)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if err := e.setHead(st, id); err != nil {
		return plumbing.ZeroHash, err
	}
	if err := e.updateWorkspace(perm); err != nil {
		return plumbing.ZeroHash, err
	}

	e.splog.Info("Committed %s on %s.", id.String()[:7], st.Name)
	return id, nil
}

// MoveCommit takes commitID out of the source stack and puts it on top of the
// destination stack.
//
// The source stack's remaining commits are replayed onto the merge base of
// the live target and the source head, then the subject is replayed onto the
// destination head. Conflicts in either replay are recorded rather than
// failing the move. The two halves are not rolled back together; the undo
// snapshot taken beforehand restores both.
func (e *Engine) MoveCommit(ctx context.Context, destinationID string, commitID plumbing.Hash, sourceID string) error {
	perm, release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := e.store.AssureResolved(); err != nil {
		return err
	}
	if destinationID == sourceID {
		return stackserrors.ErrSameStack
	}

	source, err := e.store.Get(sourceID)
	if err != nil {
		return err
	}
	destination, err := e.store.Get(destinationID)
	if err != nil {
		return err
	}
	target, err := e.store.Target()
	if err != nil {
		return err
	}
	live, err := e.liveTarget(target)
	if err != nil {
		return err
	}

	commits, mergeBase, err := e.stackCommits(source, live)
	if err != nil {
		return err
	}
	idx := indexOf(commits, commitID)
	if idx < 0 {
		return fmt.Errorf("%w in stack %s", stackserrors.NewCommitNotFoundError(commitID.String()), source.Name)
	}
	subject := commits[idx]
	if subject.IsMerge() {
		return fmt.Errorf("commit %s: %w", commitID, stackserrors.ErrMergeCommitExcision)
	}
	if len(subject.Parents) == 0 {
		return fmt.Errorf("commit %s: %w", commitID, stackserrors.ErrRootCommitExcision)
	}

	if err := e.snapshot("move", commitID.String(), source.Name, destination.Name); err != nil {
		return err
	}

	remaining := append(append([]*git.Commit(nil), commits[:idx]...), commits[idx+1:]...)
	sourceResult, err := rebase.CherryRebaseGroup(e.repo, mergeBase, oldestFirst(remaining))
	if err != nil {
		return fmt.Errorf("failed to rebase stack %s: %w", source.Name, err)
	}
	if err := e.store.ReplaceHead(source, subject.ID, subject.Parents[0]); err != nil {
		return err
	}
	if err := e.setHead(source, sourceResult.Head); err != nil {
		return err
	}

	destinationResult, err := rebase.CherryRebaseGroup(e.repo, destination.Head, []plumbing.Hash{subject.ID})
	if err != nil {
		return fmt.Errorf("failed to move commit onto stack %s: %w", destination.Name, err)
	}
	if err := e.setHead(destination, destinationResult.Head); err != nil {
		return err
	}

	if err := e.recordConflicts(sourceResult, destinationResult); err != nil {
		return err
	}
	if err := e.updateWorkspace(perm); err != nil {
		return err
	}

	e.splog.Info("Moved %s from %s to %s.", commitID.String()[:7], source.Name, destination.Name)
	return nil
}

// UpdateCommitMessage rewords a commit in a stack and replays the commits
// above it. Older commits keep their hashes. Rewording a pushed commit on a
// stack that does not allow rebasing fails with ErrForcePushNotAllowed.
func (e *Engine) UpdateCommitMessage(ctx context.Context, stackID string, commitID plumbing.Hash, message string) (plumbing.Hash, error) {
	msg := normalizeMessage(message)
	if msg == nil {
		return plumbing.ZeroHash, stackserrors.ErrEmptyCommitMessage
	}

	perm, release, err := e.acquire(ctx)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	defer release()

	if err := e.store.AssureResolved(); err != nil {
		return plumbing.ZeroHash, err
	}
	st, err := e.store.Get(stackID)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	target, err := e.store.Target()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	commits, _, err := e.stackCommits(st, target.Base)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	idx := indexOf(commits, commitID)
	if idx < 0 {
		return plumbing.ZeroHash, fmt.Errorf("%w in stack %s", stackserrors.NewCommitNotFoundError(commitID.String()), st.Name)
	}

	if !st.AllowRebasing {
		pushed, err := upstream.IsPushed(e.repo, target, st, commits[idx])
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if pushed {
			return plumbing.ZeroHash, stackserrors.ErrForcePushNotAllowed
		}
	}

	if err := e.snapshot("reword", commitID.String(), st.Name); err != nil {
		return plumbing.ZeroHash, err
	}

	reworded, err := rebase.Reword(e.repo, commitID, msg)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to reword %s: %w", commitID, err)
	}
	result, err := rebase.CherryRebaseGroup(e.repo, reworded, oldestFirst(commits[:idx]))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to rebase stack %s: %w", st.Name, err)
	}
	if err := e.setHead(st, result.Head); err != nil {
		return plumbing.ZeroHash, err
	}
	if err := e.recordConflicts(result); err != nil {
		return plumbing.ZeroHash, err
	}
	if err := e.updateWorkspace(perm); err != nil {
		return plumbing.ZeroHash, err
	}

	e.splog.Info("Reworded %s as %s.", commitID.String()[:7], reworded.String()[:7])
	return reworded, nil
}

func (e *Engine) recordConflicts(results ...*rebase.Result) error {
	var paths []string
	for _, r := range results {
		for _, c := range r.Conflicts {
			e.splog.Warn("%s was rewritten as %s with conflicts in %d file(s).", c.Original.String()[:7], c.Rewritten.String()[:7], len(c.Paths))
		}
		paths = append(paths, r.ConflictedPaths()...)
	}
	if len(paths) == 0 {
		return nil
	}
	if err := e.store.RecordConflicts(paths); err != nil {
		return fmt.Errorf("failed to record conflicts: %w", err)
	}
	e.splog.Tip("Resolve the conflicts, then run 'stacks resolve <path>' for each file.")
	return nil
}

// normalizeMessage trims surrounding whitespace and terminates the message
// with a newline. An empty message yields nil.
func normalizeMessage(message string) []byte {
	msg := bytes.TrimSpace([]byte(message))
	if len(msg) == 0 {
		return nil
	}
	return append(msg, '\n')
}
