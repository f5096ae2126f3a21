// Package git provides the object-level Git operations the stack engine is
// built on.
//
// Everything goes through go-git storage rather than a git binary:
//   - Commit encoding that preserves extra headers (change-id, conflicted)
//   - Tree flattening, synthesis and three-way merging
//   - References, blob-backed metadata refs and ancestry queries
//   - Worktree checkout and pushing
//
// A Repository serializes access to go-git internally, so it is safe to share
// between goroutines.
package git
