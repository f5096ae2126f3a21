package git

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// FlattenTree recursively flattens a tree into a map of full paths to entries.
// A zero tree hash flattens to an empty map.
func (r *Repository) FlattenTree(treeID plumbing.Hash) (map[string]object.TreeEntry, error) {
	entries := make(map[string]object.TreeEntry)
	if treeID.IsZero() {
		return entries, nil
	}
	if err := r.flattenInto(treeID, "", entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *Repository) flattenInto(treeID plumbing.Hash, prefix string, entries map[string]object.TreeEntry) error {
	r.mu.Lock()
	tree, err := r.TreeObject(treeID)
	r.mu.Unlock()
	if err != nil {
		return wrap("read tree", fmt.Errorf("tree %s at %q: %w", treeID, prefix, err))
	}

	for _, entry := range tree.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = prefix + "/" + entry.Name
		}

		if entry.Mode == filemode.Dir {
			if err := r.flattenInto(entry.Hash, fullPath, entries); err != nil {
				return err
			}
			continue
		}
		entries[fullPath] = object.TreeEntry{
			Name: fullPath,
			Mode: entry.Mode,
			Hash: entry.Hash,
		}
	}
	return nil
}

// treeNode represents a directory while building nested tree objects
type treeNode struct {
	dirs  map[string]*treeNode
	files []object.TreeEntry
}

func newTreeNode() *treeNode {
	return &treeNode{dirs: make(map[string]*treeNode)}
}

// BuildTree writes the nested tree objects for a flattened path map and
// returns the root tree hash.
func (r *Repository) BuildTree(entries map[string]object.TreeEntry) (plumbing.Hash, error) {
	root := newTreeNode()
	for fullPath, entry := range entries {
		if err := insertIntoTree(root, strings.Split(fullPath, "/"), entry); err != nil {
			return plumbing.ZeroHash, err
		}
	}
	return r.buildTreeObject(root)
}

func insertIntoTree(node *treeNode, parts []string, entry object.TreeEntry) error {
	if len(parts) == 1 {
		if _, isDir := node.dirs[parts[0]]; isDir {
			return fmt.Errorf("path %q is both a file and a directory", entry.Name)
		}
		node.files = append(node.files, object.TreeEntry{
			Name: parts[0],
			Mode: entry.Mode,
			Hash: entry.Hash,
		})
		return nil
	}

	dir := parts[0]
	for _, f := range node.files {
		if f.Name == dir {
			return fmt.Errorf("path %q is both a file and a directory", entry.Name)
		}
	}
	if node.dirs[dir] == nil {
		node.dirs[dir] = newTreeNode()
	}
	return insertIntoTree(node.dirs[dir], parts[1:], entry)
}

func (r *Repository) buildTreeObject(node *treeNode) (plumbing.Hash, error) {
	treeEntries := append([]object.TreeEntry(nil), node.files...)

	for name, sub := range node.dirs {
		subHash, err := r.buildTreeObject(sub)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		treeEntries = append(treeEntries, object.TreeEntry{
			Name: name,
			Mode: filemode.Dir,
			Hash: subHash,
		})
	}
	sortTreeEntries(treeEntries)

	r.mu.Lock()
	defer r.mu.Unlock()

	tree := &object.Tree{Entries: treeEntries}
	obj := r.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, wrap("encode tree", err)
	}
	hash, err := r.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, wrap("write tree", err)
	}
	return hash, nil
}

// sortTreeEntries sorts entries in git's order, where directories compare
// as if they had a trailing slash.
func sortTreeEntries(entries []object.TreeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		nameI, nameJ := entries[i].Name, entries[j].Name
		if entries[i].Mode == filemode.Dir {
			nameI += "/"
		}
		if entries[j].Mode == filemode.Dir {
			nameJ += "/"
		}
		return nameI < nameJ
	})
}

// EmptyTree writes and returns the empty tree
func (r *Repository) EmptyTree() (plumbing.Hash, error) {
	return r.BuildTree(map[string]object.TreeEntry{})
}

// OverlayTree applies changes on top of a flattened base. A change with a nil
// Content deletes the path.
func (r *Repository) OverlayTree(base plumbing.Hash, changes []FileChange) (plumbing.Hash, error) {
	entries, err := r.FlattenTree(base)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	for _, change := range changes {
		if change.Content == nil {
			delete(entries, change.Path)
			continue
		}
		blob, err := r.CreateBlob(change.Content)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		mode := change.Mode
		if mode == filemode.Empty {
			mode = filemode.Regular
		}
		entries[change.Path] = object.TreeEntry{Name: change.Path, Mode: mode, Hash: blob}
	}
	return r.BuildTree(entries)
}

// FileChange is new content for one path; nil Content removes the path
type FileChange struct {
	Path    string
	Content []byte
	Mode    filemode.FileMode
}
