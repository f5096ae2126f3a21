package testhelpers

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/memory"

	"stackit.dev/stacks/internal/git"
)

// Scene is a repository with a worktree. Scenes from NewScene live in
// memory and are safe to use from parallel tests.
type Scene struct {
	T    *testing.T
	Repo *GitRepo
	FS   billy.Filesystem
	// Dir is the working directory of disk-backed scenes
	Dir string
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates a new in-memory scene and runs setup on it.
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	fs := memfs.New()
	repo, err := git.InitRepository(memory.NewStorage(), fs)
	if err != nil {
		t.Fatalf("Failed to create Git repo: %v", err)
	}

	scene := &Scene{
		T:    t,
		Repo: newGitRepo(repo),
		FS:   fs,
	}

	if setup != nil {
		if err := setup(scene); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}
	return scene
}

// BasicSceneSetup creates an initial commit on main and mirrors it to
// origin/main so that it can serve as the default target.
func BasicSceneSetup(scene *Scene) error {
	init, err := scene.Repo.CommitFiles(DefaultTargetBranch, "init", map[string]string{"README.md": "init\n"})
	if err != nil {
		return err
	}
	return scene.Repo.UpdateRef(DefaultTargetRef, init)
}

// NewDiskScene creates a scene backed by a repository in a temporary
// directory. Use it for code that opens the repository by path.
func NewDiskScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	dir := t.TempDir()
	if _, err := gogit.PlainInit(dir, false); err != nil {
		t.Fatalf("Failed to init Git repo: %v", err)
	}
	repo, err := git.OpenRepository(dir)
	if err != nil {
		t.Fatalf("Failed to open Git repo: %v", err)
	}

	scene := &Scene{
		T:    t,
		Repo: newGitRepo(repo),
		FS:   osfs.New(dir),
		Dir:  dir,
	}

	if setup != nil {
		if err := setup(scene); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}
	return scene
}
