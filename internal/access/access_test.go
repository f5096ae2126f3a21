package access_test

import (
	"context"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/require"

	"stackit.dev/stacks/internal/access"
	stackserrors "stackit.dev/stacks/internal/errors"
)

func TestGuard(t *testing.T) {
	t.Run("in-process writers exclude each other", func(t *testing.T) {
		guard := access.NewGuard("")

		perm, err := guard.TryWrite(context.Background())
		require.NoError(t, err)

		_, err = guard.TryWrite(context.Background())
		require.ErrorIs(t, err, stackserrors.ErrWriteLocked)

		require.NoError(t, perm.Release())
		require.NoError(t, perm.Release())

		perm, err = guard.TryWrite(context.Background())
		require.NoError(t, err)
		require.NoError(t, perm.Release())
	})

	t.Run("lock file excludes other holders", func(t *testing.T) {
		dir := t.TempDir()
		guard := access.NewGuard(dir)

		other := flock.New(dir + "/" + access.LockFileName)
		locked, err := other.TryLock()
		require.NoError(t, err)
		require.True(t, locked)

		_, err = guard.TryWrite(context.Background())
		require.ErrorIs(t, err, stackserrors.ErrWriteLocked)

		require.NoError(t, other.Unlock())
		perm, err := guard.TryWrite(context.Background())
		require.NoError(t, err)
		require.NoError(t, perm.Release())
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := access.NewGuard("").TryWrite(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}
