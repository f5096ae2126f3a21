package git

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	stackserrors "stackit.dev/stacks/internal/errors"
)

// GetRef returns the hash a reference resolves to
func (r *Repository) GetRef(name string) (plumbing.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, err := r.Reference(plumbing.ReferenceName(name), true)
	if err != nil {
		if isNotFound(err) {
			return plumbing.ZeroHash, stackserrors.NewRefNotFoundError(name)
		}
		return plumbing.ZeroHash, wrap("read ref", err)
	}
	return ref.Hash(), nil
}

// UpdateRef creates or moves a reference
func (r *Repository) UpdateRef(name string, hash plumbing.Hash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref := plumbing.NewHashReference(plumbing.ReferenceName(name), hash)
	return wrap("update ref", r.Storer.SetReference(ref))
}

// SetSymbolicRef points name at target, e.g. HEAD at a branch
func (r *Repository) SetSymbolicRef(name, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref := plumbing.NewSymbolicReference(plumbing.ReferenceName(name), plumbing.ReferenceName(target))
	return wrap("update symbolic ref", r.Storer.SetReference(ref))
}

// DeleteRef removes a reference. Removing a missing reference is not an error.
func (r *Repository) DeleteRef(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return wrap("delete ref", r.Storer.RemoveReference(plumbing.ReferenceName(name)))
}

// ListRefs returns all hash references whose name starts with prefix
func (r *Repository) ListRefs(prefix string) (map[string]plumbing.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	refs, err := r.Storer.IterReferences()
	if err != nil {
		return nil, wrap("list refs", err)
	}
	defer refs.Close()

	result := make(map[string]plumbing.Hash)
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		if name := ref.Name().String(); strings.HasPrefix(name, prefix) {
			result[name] = ref.Hash()
		}
		return nil
	})
	if err != nil {
		return nil, wrap("list refs", err)
	}
	return result, nil
}

// ReadBlobRef reads the blob a reference points to. ok is false when the
// reference does not exist.
func (r *Repository) ReadBlobRef(name string) (data []byte, ok bool, err error) {
	hash, err := r.GetRef(name)
	if err != nil {
		if stackserrors.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	data, err = r.ReadBlob(hash)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read blob for %s: %w", name, err)
	}
	return data, true, nil
}

// WriteBlobRef stores data as a blob and points the reference at it
func (r *Repository) WriteBlobRef(name string, data []byte) (plumbing.Hash, error) {
	hash, err := r.CreateBlob(data)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if err := r.UpdateRef(name, hash); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to write ref %s: %w", name, err)
	}
	return hash, nil
}
