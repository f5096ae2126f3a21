package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage"
	"github.com/go-git/go-git/v5/storage/filesystem"

	stackserrors "stackit.dev/stacks/internal/errors"
)

// Repository wraps a go-git repository
type Repository struct {
	*git.Repository
	path string

	// Synchronize go-git operations to prevent concurrent packfile access
	mu sync.Mutex
}

// OpenRepository opens a git repository at the given path
func OpenRepository(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	root := absPath
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}

	return &Repository{
		Repository: repo,
		path:       root,
	}, nil
}

// InitRepository creates a repository on the given storage and worktree.
// Used with in-memory storage in tests.
func InitRepository(s storage.Storer, worktree billy.Filesystem) (*Repository, error) {
	repo, err := git.Init(s, worktree)
	if err != nil {
		return nil, fmt.Errorf("failed to init repository: %w", err)
	}
	return &Repository{Repository: repo}, nil
}

// UserIdentity returns user.name and user.email from the repository, global
// and system git config, or empty strings when unset
func (r *Repository) UserIdentity() (name, email string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.ConfigScoped(config.SystemScope)
	if err != nil {
		return "", ""
	}
	return cfg.User.Name, cfg.User.Email
}

// GetRepoRoot returns the root directory of the repository
func (r *Repository) GetRepoRoot() string {
	return r.path
}

// GitDir returns the on-disk git directory, or "" for repositories that are
// not backed by the filesystem.
func (r *Repository) GitDir() string {
	if fs, ok := r.Storer.(*filesystem.Storage); ok {
		return fs.Filesystem().Root()
	}
	return ""
}

// isNotFound reports whether err is one of go-git's object or reference lookup misses
func isNotFound(err error) bool {
	return errors.Is(err, plumbing.ErrObjectNotFound) || errors.Is(err, plumbing.ErrReferenceNotFound)
}

// wrap converts go-git errors into the application's typed errors
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return stackserrors.NewGitError(op, err)
}
