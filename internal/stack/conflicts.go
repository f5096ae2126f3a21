package stack

import (
	"encoding/json"
	"fmt"
	"sort"

	stackserrors "stackit.dev/stacks/internal/errors"
)

// Conflicts returns the recorded unresolved conflict paths in sorted order
func (s *Store) Conflicts() ([]string, error) {
	data, ok, err := s.repo.ReadBlobRef(ConflictsRef)
	if err != nil || !ok {
		return nil, err
	}

	var record conflictsRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conflicts: %w", err)
	}
	return record.Paths, nil
}

// RecordConflicts adds paths to the unresolved set
func (s *Store) RecordConflicts(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	existing, err := s.Conflicts()
	if err != nil {
		return err
	}
	return s.writeConflicts(append(existing, paths...))
}

// MarkResolved removes path from the unresolved set. It reports whether the
// path was recorded.
func (s *Store) MarkResolved(path string) (bool, error) {
	existing, err := s.Conflicts()
	if err != nil {
		return false, err
	}

	kept := make([]string, 0, len(existing))
	found := false
	for _, p := range existing {
		if p == path {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return false, nil
	}
	return true, s.writeConflicts(kept)
}

// AssureResolved fails with ErrUnresolvedConflicts while any conflict is recorded
func (s *Store) AssureResolved() error {
	paths, err := s.Conflicts()
	if err != nil {
		return err
	}
	if len(paths) > 0 {
		return stackserrors.NewUnresolvedConflictsError(paths)
	}
	return nil
}

func (s *Store) writeConflicts(paths []string) error {
	if len(paths) == 0 {
		return s.repo.DeleteRef(ConflictsRef)
	}

	seen := make(map[string]bool, len(paths))
	unique := paths[:0]
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}
	sort.Strings(unique)

	data, err := json.Marshal(conflictsRecord{Paths: unique})
	if err != nil {
		return fmt.Errorf("failed to marshal conflicts: %w", err)
	}
	_, err = s.repo.WriteBlobRef(ConflictsRef, data)
	return err
}
