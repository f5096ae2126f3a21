// Package errors provides sentinel errors and custom error types for the stacks application.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrNotFound indicates that a stack, commit or reference does not resolve
	ErrNotFound = errors.New("not found")

	// ErrForcePushNotAllowed indicates that an already pushed commit would be
	// rewritten on a stack that does not allow rebasing
	ErrForcePushNotAllowed = errors.New("force push not allowed")

	// ErrEmptyCommitMessage indicates that a commit message update was empty
	ErrEmptyCommitMessage = errors.New("commit message can not be empty")

	// ErrUnresolvedConflicts indicates that the working directory still has
	// conflicted paths that must be resolved before mutating anything
	ErrUnresolvedConflicts = errors.New("working directory has unresolved conflicts")

	// ErrMergeCommitExcision indicates an attempt to remove a merge commit from a stack
	ErrMergeCommitExcision = errors.New("cannot remove a merge commit from a stack")

	// ErrRootCommitExcision indicates an attempt to remove a parentless commit from a stack
	ErrRootCommitExcision = errors.New("cannot remove a root commit from a stack")

	// ErrSameStack indicates that the source and destination stack are the same
	ErrSameStack = errors.New("source and destination stack are the same")

	// ErrWriteLocked indicates that another mutating operation holds the project lock
	ErrWriteLocked = errors.New("another operation is in progress")

	// ErrNoDefaultTarget indicates that no default target has been configured
	ErrNoDefaultTarget = errors.New("no default target set. Run 'stacks init' first")

	// ErrStackNotEmpty indicates that a stack with commits was deleted without force
	ErrStackNotEmpty = errors.New("stack still has commits")

	// ErrNothingToUndo indicates that no undo snapshot exists
	ErrNothingToUndo = errors.New("nothing to undo")
)

// NotFoundError represents an error when a stack, commit or ref cannot be resolved
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Is returns true if the target error is ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound reports whether err is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// NewStackNotFoundError creates a NotFoundError for a stack id
func NewStackNotFoundError(id string) *NotFoundError {
	return &NotFoundError{Kind: "stack", ID: id}
}

// NewCommitNotFoundError creates a NotFoundError for a commit id
func NewCommitNotFoundError(id string) *NotFoundError {
	return &NotFoundError{Kind: "commit", ID: id}
}

// NewRefNotFoundError creates a NotFoundError for a reference name
func NewRefNotFoundError(name string) *NotFoundError {
	return &NotFoundError{Kind: "reference", ID: name}
}

// UnresolvedConflictsError lists the paths that are still conflicted
type UnresolvedConflictsError struct {
	Paths []string
}

func (e *UnresolvedConflictsError) Error() string {
	return fmt.Sprintf("%s: %v", ErrUnresolvedConflicts.Error(), e.Paths)
}

// Is returns true if the target error is ErrUnresolvedConflicts
func (e *UnresolvedConflictsError) Is(target error) bool {
	return target == ErrUnresolvedConflicts
}

// NewUnresolvedConflictsError creates a new UnresolvedConflictsError
func NewUnresolvedConflictsError(paths []string) *UnresolvedConflictsError {
	return &UnresolvedConflictsError{Paths: paths}
}

// GitError represents a failure from the object database or worktree layer
type GitError struct {
	Op  string
	Err error
}

func (e *GitError) Error() string {
	return fmt.Sprintf("git %s failed: %v", e.Op, e.Err)
}

func (e *GitError) Unwrap() error {
	return e.Err
}

// NewGitError creates a new GitError
func NewGitError(op string, err error) *GitError {
	return &GitError{Op: op, Err: err}
}
