package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	t.Run("returns defaults when the file does not exist", func(t *testing.T) {
		cfg, err := Load(t.TempDir())
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})

	t.Run("returns defaults without a git directory", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		require.Equal(t, "origin", cfg.DefaultRemote)
	})

	t.Run("reads values from the file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(dir+"/stacks", 0o750))
		require.NoError(t, os.WriteFile(Path(dir), []byte("default_remote: upstream\nallow_rebasing: false\nauthor:\n  name: Jane\n  email: jane@example.com\n"), 0o600))

		cfg, err := Load(dir)
		require.NoError(t, err)
		require.Equal(t, "upstream", cfg.DefaultRemote)
		require.False(t, cfg.AllowRebasing)
		require.Equal(t, "Jane", cfg.Author.Name)
		require.Equal(t, 10, cfg.UndoDepth)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		dir := t.TempDir()
		cfg := Default()
		cfg.DefaultRemote = "upstream"
		require.NoError(t, Save(dir, cfg))

		t.Setenv("STACKS_REMOTE", "fork")
		t.Setenv("STACKS_UNDO_DEPTH", "5")
		t.Setenv("STACKS_ALLOW_REBASING", "false")

		loaded, err := Load(dir)
		require.NoError(t, err)
		require.Equal(t, "fork", loaded.DefaultRemote)
		require.Equal(t, 5, loaded.UndoDepth)
		require.False(t, loaded.AllowRebasing)
	})

	t.Run("rejects malformed environment values", func(t *testing.T) {
		t.Setenv("STACKS_LOG_MAX_SIZE", "big")
		_, err := Load("")
		require.Error(t, err)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		t.Setenv("STACKS_AUTHOR_EMAIL", "not-an-email")
		_, err := Load("")
		require.ErrorContains(t, err, "Config.Author.Email")
	})

	t.Run("rejects workspace branches outside refs/heads", func(t *testing.T) {
		cfg := Default()
		cfg.WorkspaceBranch = "workspace"
		require.Error(t, cfg.Validate())
		require.Error(t, Save(t.TempDir(), cfg))
	})
}
