// Package access guards the working directory against concurrent writers.
//
// Every mutating operation first obtains a WorktreeWritePermission and passes
// it down to the functions that move refs or touch the working tree. Holding
// one proves exclusive access for the project. Contention fails immediately
// with ErrWriteLocked; there is no queueing.
package access

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	stackserrors "stackit.dev/stacks/internal/errors"
)

// LockFileName is the lock file created inside the git directory
const LockFileName = "stacks.lock"

// Guard hands out write permissions for one project
type Guard struct {
	mu       sync.Mutex
	lockPath string
}

// NewGuard creates a guard. When gitDir is empty (in-memory repositories)
// only writers within this process are excluded.
func NewGuard(gitDir string) *Guard {
	g := &Guard{}
	if gitDir != "" {
		g.lockPath = filepath.Join(gitDir, LockFileName)
	}
	return g
}

// WorktreeWritePermission is the token held for the duration of a mutation
type WorktreeWritePermission struct {
	guard *Guard
	lock  *flock.Flock
	once  sync.Once
}

// TryWrite obtains the write permission or fails with ErrWriteLocked
func (g *Guard) TryWrite(ctx context.Context) (*WorktreeWritePermission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !g.mu.TryLock() {
		return nil, stackserrors.ErrWriteLocked
	}

	perm := &WorktreeWritePermission{guard: g}
	if g.lockPath == "" {
		return perm, nil
	}

	if err := os.MkdirAll(filepath.Dir(g.lockPath), 0o750); err != nil {
		g.mu.Unlock()
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	lock := flock.New(g.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		g.mu.Unlock()
		return nil, fmt.Errorf("acquiring write lock: %w", err)
	}
	if !locked {
		g.mu.Unlock()
		return nil, stackserrors.ErrWriteLocked
	}
	perm.lock = lock
	return perm, nil
}

// Release gives the permission back. Releasing twice is a no-op.
func (p *WorktreeWritePermission) Release() error {
	var err error
	p.once.Do(func() {
		if p.lock != nil {
			err = p.lock.Unlock()
		}
		p.guard.mu.Unlock()
	})
	return err
}
