package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"stackit.dev/stacks/internal/stack"
	"stackit.dev/stacks/internal/upstream"
)

// StackView is a stack together with what ListStacks derived about it
type StackView struct {
	Stack *stack.Stack
	// Commits are newest first
	Commits       []upstream.ClassifiedCommit
	RequiresForce bool
	// Conflicted is set when any commit in the stack carries conflicts
	Conflicted bool
}

// ListStacks classifies every stack's commits. Stacks are classified
// concurrently and returned in display order. No lock is taken.
func (e *Engine) ListStacks(ctx context.Context) ([]StackView, error) {
	target, err := e.store.Target()
	if err != nil {
		return nil, err
	}
	stacks, err := e.store.List()
	if err != nil {
		return nil, err
	}

	views := make([]StackView, len(stacks))
	g, gctx := errgroup.WithContext(ctx)
	for i, st := range stacks {
		i, st := i, st
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			view, err := e.viewStack(target, st)
			if err != nil {
				return fmt.Errorf("failed to classify stack %s: %w", st.Name, err)
			}
			views[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

func (e *Engine) viewStack(target *stack.Target, st *stack.Stack) (StackView, error) {
	commits, err := upstream.Classify(e.repo, target, st)
	if err != nil {
		return StackView{}, err
	}
	requiresForce, err := upstream.RequiresForce(e.repo, st)
	if err != nil {
		return StackView{}, err
	}

	view := StackView{Stack: st, Commits: commits, RequiresForce: requiresForce}
	for _, c := range commits {
		if c.Commit.IsConflicted() {
			view.Conflicted = true
			break
		}
	}
	return view, nil
}
