package engine

import (
	"context"
	"fmt"

	stackserrors "stackit.dev/stacks/internal/errors"
	"stackit.dev/stacks/internal/stack"
)

// Snapshots lists undo snapshots, newest first
func (e *Engine) Snapshots() ([]stack.SnapshotInfo, error) {
	return e.store.GetSnapshots()
}

// Undo restores the stack state saved before a command. An empty id restores
// the most recent snapshot. The snapshot is consumed.
func (e *Engine) Undo(ctx context.Context, snapshotID string) (*stack.Snapshot, error) {
	perm, release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if snapshotID == "" {
		snapshots, err := e.store.GetSnapshots()
		if err != nil {
			return nil, err
		}
		if len(snapshots) == 0 {
			return nil, stackserrors.ErrNothingToUndo
		}
		snapshotID = snapshots[0].ID
	}

	snapshot, err := e.store.RestoreSnapshot(snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to restore snapshot %s: %w", snapshotID, err)
	}

	if _, err := e.store.Target(); err == nil {
		if err := e.updateWorkspace(perm); err != nil {
			return nil, err
		}
	}

	e.splog.Info("Restored state from before '%s'.", snapshot.Command)
	return snapshot, nil
}
