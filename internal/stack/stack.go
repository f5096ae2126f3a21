// Package stack owns the durable state of stacks: their records, the
// default target, recorded conflicts and undo snapshots. Everything is kept
// in git refs pointing at JSON blobs, so state travels with the repository
// and needs no separate database.
package stack

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

// Upstream is the remote branch a stack is pushed to
type Upstream struct {
	Remote string `json:"remote"`
	Branch string `json:"branch"`
}

// TrackingRef returns the remote-tracking ref for the upstream
func (u Upstream) TrackingRef() string {
	return fmt.Sprintf("refs/remotes/%s/%s", u.Remote, u.Branch)
}

// Series is a named position inside a stack. Head is the identity (change id
// or hash) of its topmost commit so that it survives rewrites.
type Series struct {
	Name string `json:"name"`
	Head string `json:"head"`
}

// Stack is a named, linear run of commits on top of the default target
type Stack struct {
	ID            string
	Name          string
	Head          plumbing.Hash
	Tree          plumbing.Hash
	AllowRebasing bool
	Upstream      *Upstream
	// UpstreamHead is the head that was last pushed
	UpstreamHead plumbing.Hash
	Order        int
	Series       []Series
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UpstreamRef returns the tracking ref, or "" when the stack was never pushed
func (s *Stack) UpstreamRef() string {
	if s.Upstream == nil {
		return ""
	}
	return s.Upstream.TrackingRef()
}

// Target is the default target all stacks are measured against
type Target struct {
	// Ref is the tracked branch, e.g. refs/remotes/origin/main
	Ref    string
	Remote string
	// Base is the target commit recorded when the target was last updated
	Base plumbing.Hash
}
