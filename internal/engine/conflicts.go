package engine

import (
	"context"
	"fmt"
)

// Conflicts returns the recorded unresolved paths
func (e *Engine) Conflicts() ([]string, error) {
	return e.store.Conflicts()
}

// AssureResolved fails with ErrUnresolvedConflicts while conflicts are recorded
func (e *Engine) AssureResolved() error {
	return e.store.AssureResolved()
}

// MarkResolved clears a recorded conflict. Resolving a path that is not
// recorded is an error.
func (e *Engine) MarkResolved(ctx context.Context, path string) error {
	_, release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	found, err := e.store.MarkResolved(path)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s is not conflicted", path)
	}
	e.splog.Info("Marked %s as resolved.", path)
	return nil
}
