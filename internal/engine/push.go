package engine

import (
	"context"
	"fmt"

	stackserrors "stackit.dev/stacks/internal/errors"
	"stackit.dev/stacks/internal/stack"
	"stackit.dev/stacks/internal/upstream"
	"stackit.dev/stacks/internal/utils"
)

// PushStack pushes a stack's head to its upstream branch, defaulting to a
// branch named after the stack on the target's remote. A push that rewrites
// remote history is forced, which a stack that does not allow rebasing
// refuses with ErrForcePushNotAllowed.
func (e *Engine) PushStack(ctx context.Context, stackID string) error {
	_, release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	st, err := e.store.Get(stackID)
	if err != nil {
		return err
	}
	target, err := e.store.Target()
	if err != nil {
		return err
	}
	if st.Upstream == nil {
		st.Upstream = &stack.Upstream{Remote: target.Remote, Branch: utils.SanitizeBranchName(st.Name)}
		if st.Upstream.Remote == "" {
			st.Upstream.Remote = e.cfg.DefaultRemote
		}
	}

	force, err := upstream.RequiresForce(e.repo, st)
	if err != nil {
		return err
	}
	if force && !st.AllowRebasing {
		return stackserrors.ErrForcePushNotAllowed
	}

	if err := e.snapshot("push", st.Name); err != nil {
		return err
	}

	refspec := fmt.Sprintf("%s%s:refs/heads/%s", stack.HeadRefPrefix, st.ID, st.Upstream.Branch)
	e.splog.Debug("pushing %s to %s (force=%t)", refspec, st.Upstream.Remote, force)
	if err := e.pusher.PushRefs(ctx, st.Upstream.Remote, []string{refspec}, force); err != nil {
		return fmt.Errorf("failed to push stack %s: %w", st.Name, err)
	}

	if err := e.repo.UpdateRef(st.UpstreamRef(), st.Head); err != nil {
		return err
	}
	st.UpstreamHead = st.Head
	if err := e.store.Update(st); err != nil {
		return err
	}

	e.splog.Info("Pushed %s to %s/%s.", st.Name, st.Upstream.Remote, st.Upstream.Branch)
	return nil
}
