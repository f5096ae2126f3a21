package stack

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/google/uuid"

	stackserrors "stackit.dev/stacks/internal/errors"
	"stackit.dev/stacks/internal/git"
)

// Store reads and writes stack state in the repository's refs. It does no
// locking of its own; writers hold the project write permission.
type Store struct {
	repo              *git.Repository
	now               func() time.Time
	maxUndoStackDepth int
}

// NewStore creates a store over repo
func NewStore(repo *git.Repository) *Store {
	return &Store{
		repo:              repo,
		now:               time.Now,
		maxUndoStackDepth: DefaultMaxUndoStackDepth,
	}
}

// SetClock overrides the time source used for timestamps
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// SetMaxUndoStackDepth limits how many undo snapshots are kept
func (s *Store) SetMaxUndoStackDepth(depth int) {
	if depth > 0 {
		s.maxUndoStackDepth = depth
	}
}

// Get loads a stack by id
func (s *Store) Get(id string) (*Stack, error) {
	data, ok, err := s.repo.ReadBlobRef(MetaRefPrefix + id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, stackserrors.NewStackNotFoundError(id)
	}
	return unmarshalStack(data)
}

// List returns every stack in display order
func (s *Store) List() ([]*Stack, error) {
	refs, err := s.repo.ListRefs(MetaRefPrefix)
	if err != nil {
		return nil, err
	}

	stacks := make([]*Stack, 0, len(refs))
	for name := range refs {
		st, err := s.Get(strings.TrimPrefix(name, MetaRefPrefix))
		if err != nil {
			return nil, err
		}
		stacks = append(stacks, st)
	}

	sort.Slice(stacks, func(i, j int) bool {
		if stacks[i].Order != stacks[j].Order {
			return stacks[i].Order < stacks[j].Order
		}
		return stacks[i].ID < stacks[j].ID
	})
	return stacks, nil
}

// FindByName returns the stack with the given name
func (s *Store) FindByName(name string) (*Stack, error) {
	stacks, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, st := range stacks {
		if st.Name == name {
			return st, nil
		}
	}
	return nil, stackserrors.NewStackNotFoundError(name)
}

// Create persists a new stack, assigning its id, order and timestamps.
// Names must be unique.
func (s *Store) Create(st *Stack) error {
	stacks, err := s.List()
	if err != nil {
		return err
	}

	order := 0
	for _, existing := range stacks {
		if existing.Name == st.Name {
			return fmt.Errorf("stack %q already exists", st.Name)
		}
		if existing.Order >= order {
			order = existing.Order + 1
		}
	}

	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	st.Order = order
	st.CreatedAt = s.now()
	st.UpdatedAt = st.CreatedAt
	return s.write(st)
}

// Update persists changes to a stack's attributes
func (s *Store) Update(st *Stack) error {
	if _, err := s.Get(st.ID); err != nil {
		return err
	}
	st.UpdatedAt = s.now()
	return s.write(st)
}

// Delete removes a stack's record. The commits stay in the object database.
func (s *Store) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.repo.DeleteRef(MetaRefPrefix + id); err != nil {
		return err
	}
	return s.repo.DeleteRef(HeadRefPrefix + id)
}

// SetHead persists a new head and tree for the stack as a single record write
func (s *Store) SetHead(st *Stack, bh BranchHeadAndTree) error {
	st.Head = bh.head
	st.Tree = bh.tree
	st.UpdatedAt = s.now()
	return s.write(st)
}

// ReplaceHead rewires the stack's bookkeeping when old is being removed from
// it: series that ended at old now end at newParent, and a head at old moves
// to newParent. old must have exactly one parent.
func (s *Store) ReplaceHead(st *Stack, old, newParent plumbing.Hash) error {
	commit, err := s.repo.FindCommit(old)
	if err != nil {
		return err
	}
	if commit.IsMerge() {
		return fmt.Errorf("commit %s: %w", old, stackserrors.ErrMergeCommitExcision)
	}
	if len(commit.Parents) == 0 {
		return fmt.Errorf("commit %s: %w", old, stackserrors.ErrRootCommitExcision)
	}

	parent, err := s.repo.FindCommit(newParent)
	if err != nil {
		return err
	}

	oldIdentity := commit.Identity()
	for i := range st.Series {
		if st.Series[i].Head == oldIdentity {
			st.Series[i].Head = parent.Identity()
		}
	}
	if st.Head == old {
		st.Head = parent.ID
		st.Tree = parent.Tree
	}
	st.UpdatedAt = s.now()
	return s.write(st)
}

func (s *Store) write(st *Stack) error {
	data, err := marshalStack(st)
	if err != nil {
		return err
	}
	if _, err := s.repo.WriteBlobRef(MetaRefPrefix+st.ID, data); err != nil {
		return fmt.Errorf("failed to write stack %s: %w", st.ID, err)
	}
	// The record is authoritative; the head ref only keeps commits reachable
	// and is realigned by the next write.
	if !st.Head.IsZero() {
		if err := s.repo.UpdateRef(HeadRefPrefix+st.ID, st.Head); err != nil {
			return err
		}
	}
	return nil
}

// Target loads the default target
func (s *Store) Target() (*Target, error) {
	data, ok, err := s.repo.ReadBlobRef(TargetRef)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, stackserrors.ErrNoDefaultTarget
	}

	var record targetRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default target: %w", err)
	}
	return &Target{Ref: record.Ref, Remote: record.Remote, Base: parseHash(record.Base)}, nil
}

// SetTarget persists the default target
func (s *Store) SetTarget(t *Target) error {
	data, err := json.Marshal(targetRecord{Ref: t.Ref, Remote: t.Remote, Base: hashString(t.Base)})
	if err != nil {
		return fmt.Errorf("failed to marshal default target: %w", err)
	}
	_, err = s.repo.WriteBlobRef(TargetRef, data)
	return err
}
