// Package engine implements the stack operations: creating stacks and
// commits, moving commits between stacks, rewording, pushing and undo.
//
// Every mutating operation holds the project write permission for its whole
// duration, records an undo snapshot once its preconditions pass, and ends by
// rebuilding the workspace commit so the working directory shows all stacks.
package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"stackit.dev/stacks/internal/access"
	"stackit.dev/stacks/internal/config"
	"stackit.dev/stacks/internal/git"
	"stackit.dev/stacks/internal/stack"
	"stackit.dev/stacks/internal/tui"
	"stackit.dev/stacks/internal/workspace"
)

// Pusher sends local refs to a remote. *git.Repository implements it.
type Pusher interface {
	PushRefs(ctx context.Context, remote string, refspecs []string, force bool) error
}

// Options configure an Engine. Zero values fall back to defaults.
type Options struct {
	Config *config.Config
	Splog  *tui.Splog
	Pusher Pusher
	// Now is the clock used for commit signatures and record timestamps
	Now func() time.Time
}

// Engine runs stack operations against one repository
type Engine struct {
	repo   *git.Repository
	store  *stack.Store
	guard  *access.Guard
	cfg    *config.Config
	splog  *tui.Splog
	pusher Pusher
	now    func() time.Time
}

// New creates an engine over repo
func New(repo *git.Repository, opts Options) *Engine {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	splog := opts.Splog
	if splog == nil {
		splog, _ = tui.NewSplogWithWriter(io.Discard, tui.LogFileOptions{})
	}
	pusher := opts.Pusher
	if pusher == nil {
		pusher = repo
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	store := stack.NewStore(repo)
	store.SetClock(now)
	store.SetMaxUndoStackDepth(cfg.UndoDepth)

	return &Engine{
		repo:   repo,
		store:  store,
		guard:  access.NewGuard(repo.GitDir()),
		cfg:    cfg,
		splog:  splog,
		pusher: pusher,
		now:    now,
	}
}

// Repository returns the underlying repository
func (e *Engine) Repository() *git.Repository {
	return e.repo
}

// Store returns the stack store
func (e *Engine) Store() *stack.Store {
	return e.store
}

// Config returns the engine's configuration
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// acquire obtains the write permission. The returned release is safe to defer.
func (e *Engine) acquire(ctx context.Context) (*access.WorktreeWritePermission, func(), error) {
	perm, err := e.guard.TryWrite(ctx)
	if err != nil {
		return nil, nil, err
	}
	return perm, func() {
		if err := perm.Release(); err != nil {
			e.splog.Debug("failed to release write lock: %v", err)
		}
	}, nil
}

func (e *Engine) snapshot(command string, args ...string) error {
	if err := e.store.TakeSnapshot(stack.SnapshotOptions{Command: command, Args: args}); err != nil {
		return fmt.Errorf("failed to take undo snapshot: %w", err)
	}
	return nil
}

func (e *Engine) signature() object.Signature {
	return object.Signature{
		Name:  e.cfg.Author.Name,
		Email: e.cfg.Author.Email,
		When:  e.now(),
	}
}

// Target returns the default target
func (e *Engine) Target() (*stack.Target, error) {
	return e.store.Target()
}

// liveTarget resolves the target ref as it is now, which may be ahead of the
// recorded base after a fetch
func (e *Engine) liveTarget(target *stack.Target) (plumbing.Hash, error) {
	live, err := e.repo.GetRef(target.Ref)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to resolve default target %s: %w", target.Ref, err)
	}
	return live, nil
}

// updateWorkspace rebuilds the workspace commit from every stack and checks
// it out
func (e *Engine) updateWorkspace(perm *access.WorktreeWritePermission) error {
	target, err := e.store.Target()
	if err != nil {
		return err
	}
	stacks, err := e.store.List()
	if err != nil {
		return err
	}

	result, err := workspace.Update(e.repo, perm, target.Base, stacks, workspace.Options{
		Branch:    e.cfg.WorkspaceBranch,
		Signature: e.signature(),
	})
	if err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}
	e.splog.Debug("workspace commit is now %s with %d stack(s)", result.Commit, len(stacks))
	for _, p := range result.Kept {
		e.splog.Warn("Kept your local changes to %s; the workspace version was not written.", p)
	}
	return nil
}

// setHead moves a stack to newTip, keeping head and tree together
func (e *Engine) setHead(st *stack.Stack, newTip plumbing.Hash) error {
	bh, err := stack.ComputeUpdatedBranchHead(e.repo, st, newTip)
	if err != nil {
		return err
	}
	if err := e.store.SetHead(st, bh); err != nil {
		return fmt.Errorf("failed to update head of stack %s: %w", st.Name, err)
	}
	e.splog.Debug("stack %s head is now %s", st.Name, bh.Head())
	return nil
}

// stackCommits lists a stack's commits newest first down to its merge base
// with base
func (e *Engine) stackCommits(st *stack.Stack, base plumbing.Hash) ([]*git.Commit, plumbing.Hash, error) {
	mergeBase, err := e.repo.MergeBase(st.Head, base)
	if err != nil {
		return nil, plumbing.ZeroHash, fmt.Errorf("failed to find merge base for stack %s: %w", st.Name, err)
	}
	commits, err := e.repo.LogUntil(st.Head, mergeBase)
	if err != nil {
		return nil, plumbing.ZeroHash, err
	}
	return commits, mergeBase, nil
}

// oldestFirst returns the ids of newest-first commits in replay order
func oldestFirst(commits []*git.Commit) []plumbing.Hash {
	ids := make([]plumbing.Hash, len(commits))
	for i, c := range commits {
		ids[len(commits)-1-i] = c.ID
	}
	return ids
}

// indexOf finds id among commits, or -1
func indexOf(commits []*git.Commit, id plumbing.Hash) int {
	for i, c := range commits {
		if c.ID == id {
			return i
		}
	}
	return -1
}
