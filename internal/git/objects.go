package git

import (
	"fmt"
	"io"

	"github.com/go-git/go-git/v5/plumbing"

	stackserrors "stackit.dev/stacks/internal/errors"
)

// FindCommit loads a commit by hash with all of its headers
func (r *Repository) FindCommit(id plumbing.Hash) (*Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	obj, err := r.Storer.EncodedObject(plumbing.CommitObject, id)
	if err != nil {
		if isNotFound(err) {
			return nil, stackserrors.NewCommitNotFoundError(id.String())
		}
		return nil, wrap("read commit", err)
	}

	data, err := readObject(obj)
	if err != nil {
		return nil, wrap("read commit", err)
	}
	return DecodeCommit(id, data)
}

// WriteCommit stores the commit and returns its new hash. c.ID is updated.
func (r *Repository) WriteCommit(c *Commit) (plumbing.Hash, error) {
	data, err := EncodeCommit(c)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	hash, err := r.writeObject(plumbing.CommitObject, data)
	if err != nil {
		return plumbing.ZeroHash, wrap("write commit", err)
	}
	c.ID = hash
	return hash, nil
}

// CreateBlob stores content as a blob object
func (r *Repository) CreateBlob(content []byte) (plumbing.Hash, error) {
	hash, err := r.writeObject(plumbing.BlobObject, content)
	if err != nil {
		return plumbing.ZeroHash, wrap("write blob", err)
	}
	return hash, nil
}

// ReadBlob returns the content of a blob object
func (r *Repository) ReadBlob(id plumbing.Hash) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	obj, err := r.Storer.EncodedObject(plumbing.BlobObject, id)
	if err != nil {
		if isNotFound(err) {
			return nil, &stackserrors.NotFoundError{Kind: "blob", ID: id.String()}
		}
		return nil, wrap("read blob", err)
	}
	data, err := readObject(obj)
	if err != nil {
		return nil, wrap("read blob", err)
	}
	return data, nil
}

func (r *Repository) writeObject(t plumbing.ObjectType, data []byte) (plumbing.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	obj := r.Storer.NewEncodedObject()
	obj.SetType(t)
	obj.SetSize(int64(len(data)))

	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get object writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to close object writer: %w", err)
	}

	return r.Storer.SetEncodedObject(obj)
}

func readObject(obj plumbing.EncodedObject) ([]byte, error) {
	reader, err := obj.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
