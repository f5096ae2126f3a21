package git

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// MergeResult is the outcome of a three-way tree merge
type MergeResult struct {
	Tree plumbing.Hash
	// Conflicts lists conflicted paths in sorted order
	Conflicts []string
}

// HasConflicts reports whether any path failed to merge cleanly
func (m *MergeResult) HasConflicts() bool {
	return len(m.Conflicts) > 0
}

// MergeTrees merges theirs into ours relative to base. Conflicted text files
// are written with conflict markers; other conflicts keep one side as
// described on mergeEntry. The merged tree is always written.
func (r *Repository) MergeTrees(base, ours, theirs plumbing.Hash, labels MergeLabels) (*MergeResult, error) {
	baseEntries, err := r.FlattenTree(base)
	if err != nil {
		return nil, err
	}
	oursEntries, err := r.FlattenTree(ours)
	if err != nil {
		return nil, err
	}
	theirsEntries, err := r.FlattenTree(theirs)
	if err != nil {
		return nil, err
	}

	paths := make(map[string]struct{}, len(oursEntries))
	for _, m := range []map[string]object.TreeEntry{baseEntries, oursEntries, theirsEntries} {
		for p := range m {
			paths[p] = struct{}{}
		}
	}

	result := make(map[string]object.TreeEntry, len(paths))
	conflicts := make(map[string]struct{})
	for p := range paths {
		b, hasBase := baseEntries[p]
		o, hasOurs := oursEntries[p]
		t, hasTheirs := theirsEntries[p]

		entry, keep, conflicted, err := r.mergeEntry(p, entryRef(b, hasBase), entryRef(o, hasOurs), entryRef(t, hasTheirs), labels)
		if err != nil {
			return nil, fmt.Errorf("failed to merge %s: %w", p, err)
		}
		if keep {
			result[p] = entry
		}
		if conflicted {
			conflicts[p] = struct{}{}
		}
	}

	// A file cannot live where the other side made a directory
	for p := range result {
		for dir := parentDir(p); dir != ""; dir = parentDir(dir) {
			if _, isFile := result[dir]; isFile {
				delete(result, dir)
				conflicts[dir] = struct{}{}
			}
		}
	}

	tree, err := r.BuildTree(result)
	if err != nil {
		return nil, err
	}

	merged := &MergeResult{Tree: tree}
	for p := range conflicts {
		merged.Conflicts = append(merged.Conflicts, p)
	}
	sort.Strings(merged.Conflicts)
	return merged, nil
}

func entryRef(e object.TreeEntry, ok bool) *object.TreeEntry {
	if !ok {
		return nil
	}
	return &e
}

func sameEntry(a, b *object.TreeEntry) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Hash == b.Hash && a.Mode == b.Mode
}

// mergeEntry resolves one path. When both sides changed it: a deletion
// against a modification keeps the modification, binary or submodule content
// keeps ours, and text goes through Merge3. Each of those marks a conflict
// unless Merge3 merges cleanly.
func (r *Repository) mergeEntry(path string, base, ours, theirs *object.TreeEntry, labels MergeLabels) (entry object.TreeEntry, keep, conflicted bool, err error) {
	pick := func(e *object.TreeEntry) (object.TreeEntry, bool) {
		if e == nil {
			return object.TreeEntry{}, false
		}
		return object.TreeEntry{Name: path, Mode: e.Mode, Hash: e.Hash}, true
	}

	switch {
	case sameEntry(ours, theirs):
		entry, keep = pick(ours)
		return entry, keep, false, nil
	case sameEntry(base, ours):
		entry, keep = pick(theirs)
		return entry, keep, false, nil
	case sameEntry(base, theirs):
		entry, keep = pick(ours)
		return entry, keep, false, nil
	case ours == nil:
		entry, keep = pick(theirs)
		return entry, keep, true, nil
	case theirs == nil:
		entry, keep = pick(ours)
		return entry, keep, true, nil
	}

	mode := ours.Mode
	if base != nil && ours.Mode == base.Mode {
		mode = theirs.Mode
	}

	if ours.Hash == theirs.Hash {
		return object.TreeEntry{Name: path, Mode: mode, Hash: ours.Hash}, true, false, nil
	}
	if ours.Mode == filemode.Submodule || theirs.Mode == filemode.Submodule {
		entry, keep = pick(ours)
		return entry, keep, true, nil
	}

	var baseContent []byte
	if base != nil && base.Mode != filemode.Submodule {
		if baseContent, err = r.ReadBlob(base.Hash); err != nil {
			return entry, false, false, err
		}
	}
	oursContent, err := r.ReadBlob(ours.Hash)
	if err != nil {
		return entry, false, false, err
	}
	theirsContent, err := r.ReadBlob(theirs.Hash)
	if err != nil {
		return entry, false, false, err
	}

	if IsBinary(baseContent) || IsBinary(oursContent) || IsBinary(theirsContent) {
		entry, keep = pick(ours)
		return entry, keep, true, nil
	}

	merged, conflicted := Merge3(baseContent, oursContent, theirsContent, labels)
	blob, err := r.CreateBlob(merged)
	if err != nil {
		return entry, false, false, err
	}
	return object.TreeEntry{Name: path, Mode: mode, Hash: blob}, true, conflicted, nil
}

func parentDir(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return ""
	}
	return p[:i]
}
