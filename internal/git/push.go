package git

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
)

// PushRefs pushes local refs to remote. Each refspec is "src:dst"; force
// prefixes them with "+" so the remote accepts non-fast-forward updates.
// An already up-to-date remote is not an error.
func (r *Repository) PushRefs(ctx context.Context, remote string, refspecs []string, force bool) error {
	specs := make([]config.RefSpec, 0, len(refspecs))
	for _, s := range refspecs {
		if force {
			s = "+" + s
		}
		spec := config.RefSpec(s)
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("invalid refspec %q: %w", s, err)
		}
		specs = append(specs, spec)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   specs,
		Force:      force,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return wrap("push", fmt.Errorf("%s: %w", remote, err))
	}
	return nil
}

// RemoteURL returns the first configured URL of a remote
func (r *Repository) RemoteURL(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	remote, err := r.Remote(name)
	if err != nil {
		return "", wrap("read remote", fmt.Errorf("%s: %w", name, err))
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no url", name)
	}
	return urls[0], nil
}
