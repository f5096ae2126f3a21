package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	stackserrors "stackit.dev/stacks/internal/errors"
	"stackit.dev/stacks/internal/stack"
	"stackit.dev/stacks/internal/utils"
)

// StackUpdate lists the attributes UpdateStack changes. Nil fields are left alone.
type StackUpdate struct {
	Name          *string
	AllowRebasing *bool
	Upstream      *stack.Upstream
}

// SetDefaultTarget records ref as the default target, with its current
// commit as the base new stacks start from
func (e *Engine) SetDefaultTarget(ctx context.Context, ref string) (*stack.Target, error) {
	perm, release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	base, err := e.repo.ResolveCommitID(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target %s: %w", ref, err)
	}

	target := &stack.Target{Ref: ref, Remote: remoteOf(ref, e.cfg.DefaultRemote), Base: base}
	if err := e.snapshot("init", ref); err != nil {
		return nil, err
	}
	if err := e.store.SetTarget(target); err != nil {
		return nil, err
	}
	if err := e.updateWorkspace(perm); err != nil {
		return nil, err
	}

	e.splog.Info("Default target set to %s at %s.", ref, base.String()[:7])
	return target, nil
}

// remoteOf extracts the remote from refs/remotes/<remote>/<branch>
func remoteOf(ref, fallback string) string {
	rest, ok := strings.CutPrefix(ref, "refs/remotes/")
	if !ok {
		return fallback
	}
	if remote, _, ok := strings.Cut(rest, "/"); ok {
		return remote
	}
	return fallback
}

// GetStack loads a stack by id or, failing that, by name
func (e *Engine) GetStack(idOrName string) (*stack.Stack, error) {
	st, err := e.store.Get(idOrName)
	if err == nil {
		return st, nil
	}
	if !stackserrors.IsNotFound(err) {
		return nil, err
	}
	return e.store.FindByName(idOrName)
}

// FindStackForCommit returns the stack whose commits include id
func (e *Engine) FindStackForCommit(id plumbing.Hash) (*stack.Stack, error) {
	target, err := e.store.Target()
	if err != nil {
		return nil, err
	}
	stacks, err := e.store.List()
	if err != nil {
		return nil, err
	}
	for _, st := range stacks {
		commits, _, err := e.stackCommits(st, target.Base)
		if err != nil {
			return nil, err
		}
		if indexOf(commits, id) >= 0 {
			return st, nil
		}
	}
	return nil, fmt.Errorf("%w in any stack", stackserrors.NewCommitNotFoundError(id.String()))
}

// validateStackName rejects names that leave nothing to push a branch as
func validateStackName(name string) error {
	if name == "" {
		return errors.New("stack name can not be empty")
	}
	if utils.SanitizeBranchName(name) == "" {
		return fmt.Errorf("stack name %q has no characters usable in a branch name", name)
	}
	return nil
}

// CreateStack creates an empty stack on the default target's base
func (e *Engine) CreateStack(ctx context.Context, name string) (*stack.Stack, error) {
	name = strings.TrimSpace(name)
	if err := validateStackName(name); err != nil {
		return nil, err
	}

	perm, release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	target, err := e.store.Target()
	if err != nil {
		return nil, err
	}
	base, err := e.repo.FindCommit(target.Base)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.FindByName(name); err == nil {
		return nil, fmt.Errorf("stack %q already exists", name)
	}

	if err := e.snapshot("stack create", name); err != nil {
		return nil, err
	}
	st := &stack.Stack{
		Name:          name,
		Head:          base.ID,
		Tree:          base.Tree,
		AllowRebasing: e.cfg.AllowRebasing,
	}
	if err := e.store.Create(st); err != nil {
		return nil, err
	}
	if err := e.updateWorkspace(perm); err != nil {
		return nil, err
	}

	e.splog.Info("Created stack %s.", name)
	return st, nil
}

// UpdateStack changes a stack's name, rebasing policy or upstream
func (e *Engine) UpdateStack(ctx context.Context, id string, update StackUpdate) (*stack.Stack, error) {
	_, release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := e.store.Get(id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if err := validateStackName(name); err != nil {
			return nil, err
		}
		if other, err := e.store.FindByName(name); err == nil && other.ID != st.ID {
			return nil, fmt.Errorf("stack %q already exists", name)
		}
		st.Name = name
	}
	if update.AllowRebasing != nil {
		st.AllowRebasing = *update.AllowRebasing
	}
	if update.Upstream != nil {
		upstream := *update.Upstream
		st.Upstream = &upstream
	}

	if err := e.snapshot("stack update", id); err != nil {
		return nil, err
	}
	if err := e.store.Update(st); err != nil {
		return nil, err
	}
	return st, nil
}

// DeleteStack removes a stack. A stack that still has commits is only
// removed when force is set; its commits stay in the object database.
func (e *Engine) DeleteStack(ctx context.Context, id string, force bool) error {
	perm, release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	st, err := e.store.Get(id)
	if err != nil {
		return err
	}
	target, err := e.store.Target()
	if err != nil {
		return err
	}
	commits, _, err := e.stackCommits(st, target.Base)
	if err != nil {
		return err
	}
	if len(commits) > 0 && !force {
		return fmt.Errorf("stack %s has %d commit(s): %w", st.Name, len(commits), stackserrors.ErrStackNotEmpty)
	}

	if err := e.snapshot("stack delete", id); err != nil {
		return err
	}
	if err := e.store.Delete(st.ID); err != nil {
		return err
	}
	if err := e.updateWorkspace(perm); err != nil {
		return err
	}

	e.splog.Info("Deleted stack %s.", st.Name)
	return nil
}

// AddSeries names a position inside a stack. The series follows its commit
// through rewrites.
func (e *Engine) AddSeries(ctx context.Context, stackID, name string, commitID plumbing.Hash) error {
	_, release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	st, err := e.store.Get(stackID)
	if err != nil {
		return err
	}
	for _, s := range st.Series {
		if s.Name == name {
			return fmt.Errorf("series %q already exists in stack %s", name, st.Name)
		}
	}

	target, err := e.store.Target()
	if err != nil {
		return err
	}
	commits, _, err := e.stackCommits(st, target.Base)
	if err != nil {
		return err
	}
	idx := indexOf(commits, commitID)
	if idx < 0 {
		return fmt.Errorf("%w in stack %s", stackserrors.NewCommitNotFoundError(commitID.String()), st.Name)
	}

	if err := e.snapshot("series add", stackID, name); err != nil {
		return err
	}
	st.Series = append(st.Series, stack.Series{Name: name, Head: commits[idx].Identity()})
	return e.store.Update(st)
}
