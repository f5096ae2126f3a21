package stack

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	"stackit.dev/stacks/internal/git"
)

// BranchHeadAndTree is a stack's head together with the tree its working
// copy shows. The pair is only produced by ComputeUpdatedBranchHead, so a
// head can never be stored with a tree that does not belong to it.
type BranchHeadAndTree struct {
	head plumbing.Hash
	tree plumbing.Hash
}

// Head returns the head commit
func (b BranchHeadAndTree) Head() plumbing.Hash {
	return b.head
}

// Tree returns the tree to show for the head
func (b BranchHeadAndTree) Tree() plumbing.Hash {
	return b.tree
}

// ComputeUpdatedBranchHead decides the head and tree of a stack whose tip is
// now newTip. A conflicted tip keeps its marker-laden tree.
func ComputeUpdatedBranchHead(repo *git.Repository, stack *Stack, newTip plumbing.Hash) (BranchHeadAndTree, error) {
	commit, err := repo.FindCommit(newTip)
	if err != nil {
		return BranchHeadAndTree{}, fmt.Errorf("failed to compute head of stack %s: %w", stack.Name, err)
	}
	return BranchHeadAndTree{head: commit.ID, tree: commit.Tree}, nil
}
