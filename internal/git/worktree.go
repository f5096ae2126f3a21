package git

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// SwitchResult reports what SwitchTree left alone
type SwitchResult struct {
	// Kept lists paths whose local content differs from the old tree and
	// that the new tree changes too. They keep the local content.
	Kept []string
}

// HeadCommit returns the commit HEAD resolves to, or the zero hash when HEAD
// is unborn
func (r *Repository) HeadCommit() (plumbing.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, err := r.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, nil
		}
		return plumbing.ZeroHash, wrap("resolve HEAD", err)
	}
	return ref.Hash(), nil
}

// SwitchTree moves the working tree and index from commit from (zero for an
// empty tree) to commit to. Only paths that differ between the two trees are
// touched, and only when the working tree still holds the old content, so
// local edits and untracked files survive. The index is rewritten to match
// to.
func (r *Repository) SwitchTree(from, to plumbing.Hash) (*SwitchResult, error) {
	oldEntries, err := r.commitEntries(from)
	if err != nil {
		return nil, err
	}
	newEntries, err := r.commitEntries(to)
	if err != nil {
		return nil, err
	}

	wt, err := r.Worktree()
	if err != nil {
		return nil, wrap("open worktree", err)
	}
	fs := wt.Filesystem

	paths := make(map[string]struct{}, len(oldEntries)+len(newEntries))
	for p := range oldEntries {
		paths[p] = struct{}{}
	}
	for p := range newEntries {
		paths[p] = struct{}{}
	}

	result := &SwitchResult{}
	var removals, writes []string
	current := make(map[string]bool)
	for p := range paths {
		oldEntry, inOld := oldEntries[p]
		newEntry, inNew := newEntries[p]
		if inOld && inNew && oldEntry.Hash == newEntry.Hash && oldEntry.Mode == newEntry.Mode {
			continue
		}

		local, exists, err := worktreeHash(fs, p)
		if err != nil {
			return nil, err
		}
		switch {
		case inNew && exists && local == newEntry.Hash, !inNew && !exists:
			current[p] = true
		case inOld && exists && local == oldEntry.Hash, !inOld && !exists:
			if inNew {
				writes = append(writes, p)
			} else {
				removals = append(removals, p)
			}
		default:
			result.Kept = append(result.Kept, p)
		}
	}
	sort.Strings(removals)
	sort.Strings(writes)
	sort.Strings(result.Kept)

	for _, p := range removals {
		if err := fs.Remove(p); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove %s: %w", p, err)
		}
		removeEmptyParents(fs, p)
	}
	for _, p := range writes {
		if err := r.writeWorktreeEntry(fs, newEntries[p]); err != nil {
			return nil, err
		}
		current[p] = true
	}

	if err := r.writeIndex(fs, newEntries, current); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Repository) commitEntries(id plumbing.Hash) (map[string]object.TreeEntry, error) {
	if id.IsZero() {
		return map[string]object.TreeEntry{}, nil
	}
	commit, err := r.FindCommit(id)
	if err != nil {
		return nil, err
	}
	return r.FlattenTree(commit.Tree)
}

// worktreeHash returns the blob hash of a working tree path. Symlinks hash
// their target like git does.
func worktreeHash(fs billy.Filesystem, p string) (plumbing.Hash, bool, error) {
	info, err := fs.Lstat(p)
	if os.IsNotExist(err) {
		return plumbing.ZeroHash, false, nil
	}
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	if info.IsDir() {
		// a directory never matches a blob
		return plumbing.ZeroHash, true, nil
	}

	var data []byte
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := fs.Readlink(p)
		if err != nil {
			return plumbing.ZeroHash, false, fmt.Errorf("failed to read link %s: %w", p, err)
		}
		data = []byte(target)
	} else {
		if data, err = util.ReadFile(fs, p); err != nil {
			return plumbing.ZeroHash, false, fmt.Errorf("failed to read %s: %w", p, err)
		}
	}
	return plumbing.ComputeHash(plumbing.BlobObject, data), true, nil
}

func (r *Repository) writeWorktreeEntry(fs billy.Filesystem, entry object.TreeEntry) error {
	if entry.Mode == filemode.Submodule {
		return fs.MkdirAll(entry.Name, 0o755)
	}
	content, err := r.ReadBlob(entry.Hash)
	if err != nil {
		return err
	}
	if dir := path.Dir(entry.Name); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := fs.Remove(entry.Name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace %s: %w", entry.Name, err)
	}

	if entry.Mode == filemode.Symlink {
		return fs.Symlink(string(content), entry.Name)
	}
	perm := os.FileMode(0o644)
	if entry.Mode == filemode.Executable {
		perm = 0o755
	}
	if err := util.WriteFile(fs, entry.Name, content, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", entry.Name, err)
	}
	return nil
}

func removeEmptyParents(fs billy.Filesystem, p string) {
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		children, err := fs.ReadDir(dir)
		if err != nil || len(children) > 0 {
			return
		}
		if err := fs.Remove(dir); err != nil {
			return
		}
	}
}

// writeIndex replaces the index with entries. Paths in current hold the
// entry's content on disk and get their stat data recorded.
func (r *Repository) writeIndex(fs billy.Filesystem, entries map[string]object.TreeEntry, current map[string]bool) error {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	idx := &index.Index{Version: 2}
	for _, name := range names {
		entry := entries[name]
		e := &index.Entry{Name: name, Hash: entry.Hash, Mode: entry.Mode}
		if current[name] {
			if info, err := fs.Lstat(name); err == nil {
				e.Size = uint32(info.Size())
				e.ModifiedAt = info.ModTime()
			}
		}
		idx.Entries = append(idx.Entries, e)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return wrap("write index", r.Storer.SetIndex(idx))
}

// ReadWorktreeFile returns the on-disk content of a path in the working tree
func (r *Repository) ReadWorktreeFile(path string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wt, err := r.Worktree()
	if err != nil {
		return nil, wrap("open worktree", err)
	}
	f, err := wt.Filesystem.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// HeadBranch returns the branch HEAD points at, or "" when detached
func (r *Repository) HeadBranch() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, err := r.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", wrap("read HEAD", err)
	}
	if ref.Type() != plumbing.SymbolicReference {
		return "", nil
	}
	return ref.Target().String(), nil
}
