package stack

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

const (
	// DefaultMaxUndoStackDepth is the default number of snapshots we keep
	DefaultMaxUndoStackDepth = 10
	// snapshotTimeFormat sorts chronologically as a string
	snapshotTimeFormat = "20060102150405.000000000"
)

// Snapshot is the stack state saved before a mutating command
type Snapshot struct {
	Timestamp time.Time         `json:"timestamp"`
	Command   string            `json:"command"`
	Args      []string          `json:"args"`
	Refs      map[string]string `json:"refs"` // ref name -> SHA
}

// SnapshotInfo describes a snapshot for display
type SnapshotInfo struct {
	ID          string
	Command     string
	Args        []string
	Timestamp   time.Time
	DisplayName string
}

// SnapshotOptions contains options for taking a snapshot
type SnapshotOptions struct {
	Command string
	Args    []string
}

// TakeSnapshot records every stack ref so that the command can be undone
func (s *Store) TakeSnapshot(opts SnapshotOptions) error {
	refs, err := s.stateRefs()
	if err != nil {
		return err
	}

	timestamp := s.now()
	snapshot := Snapshot{
		Timestamp: timestamp,
		Command:   opts.Command,
		Args:      opts.Args,
		Refs:      make(map[string]string, len(refs)),
	}
	for name, hash := range refs {
		snapshot.Refs[name] = hash.String()
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	existing, err := s.repo.ListRefs(UndoRefPrefix)
	if err != nil {
		return err
	}
	id := snapshotID(timestamp, opts.Command)
	for i := 1; ; i++ {
		if _, taken := existing[UndoRefPrefix+id]; !taken {
			break
		}
		id = snapshotID(timestamp.Add(time.Duration(i)), opts.Command)
	}

	if _, err := s.repo.WriteBlobRef(UndoRefPrefix+id, data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return s.enforceMaxStackDepth()
}

func snapshotID(timestamp time.Time, command string) string {
	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '-'
	}, strings.ToLower(command))
	return fmt.Sprintf("%s_%s", timestamp.UTC().Format(snapshotTimeFormat), safe)
}

// stateRefs lists the refs a snapshot captures: all stack state except the
// snapshots themselves
func (s *Store) stateRefs() (map[string]plumbing.Hash, error) {
	refs, err := s.repo.ListRefs(RefPrefix)
	if err != nil {
		return nil, err
	}
	state := make(map[string]plumbing.Hash, len(refs))
	for name, hash := range refs {
		if strings.HasPrefix(name, UndoRefPrefix) {
			continue
		}
		state[name] = hash
	}
	return state, nil
}

// enforceMaxStackDepth removes the oldest snapshots beyond the limit
func (s *Store) enforceMaxStackDepth() error {
	ids, err := s.snapshotIDs()
	if err != nil {
		return err
	}
	if len(ids) <= s.maxUndoStackDepth {
		return nil
	}
	for _, id := range ids[:len(ids)-s.maxUndoStackDepth] {
		if err := s.repo.DeleteRef(UndoRefPrefix + id); err != nil {
			return err
		}
	}
	return nil
}

// snapshotIDs returns snapshot ids, oldest first
func (s *Store) snapshotIDs() ([]string, error) {
	refs, err := s.repo.ListRefs(UndoRefPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(refs))
	for name := range refs {
		ids = append(ids, strings.TrimPrefix(name, UndoRefPrefix))
	}
	sort.Strings(ids)
	return ids, nil
}

// GetSnapshots returns all snapshots, newest first
func (s *Store) GetSnapshots() ([]SnapshotInfo, error) {
	ids, err := s.snapshotIDs()
	if err != nil {
		return nil, err
	}

	infos := make([]SnapshotInfo, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		snapshot, err := s.LoadSnapshot(ids[i])
		if err != nil {
			continue
		}
		infos = append(infos, SnapshotInfo{
			ID:          ids[i],
			Command:     snapshot.Command,
			Args:        snapshot.Args,
			Timestamp:   snapshot.Timestamp,
			DisplayName: formatSnapshotDisplay(snapshot.Command, snapshot.Args, snapshot.Timestamp),
		})
	}
	return infos, nil
}

func formatSnapshotDisplay(command string, args []string, timestamp time.Time) string {
	cmdStr := command
	if len(args) > 0 {
		displayArgs := args
		if len(displayArgs) > 2 {
			displayArgs = displayArgs[:2]
		}
		cmdStr = fmt.Sprintf("%s %s", command, strings.Join(displayArgs, " "))
	}
	return fmt.Sprintf("Before '%s' (%s)", cmdStr, timestamp.Local().Format(time.DateTime))
}

// LoadSnapshot loads a snapshot by id
func (s *Store) LoadSnapshot(id string) (*Snapshot, error) {
	data, ok, err := s.repo.ReadBlobRef(UndoRefPrefix + id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("snapshot %s not found", id)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &snapshot, nil
}

// RestoreSnapshot puts every stack ref back to its recorded value, removes
// refs created since, and drops the snapshot.
func (s *Store) RestoreSnapshot(id string) (*Snapshot, error) {
	snapshot, err := s.LoadSnapshot(id)
	if err != nil {
		return nil, err
	}

	current, err := s.stateRefs()
	if err != nil {
		return nil, err
	}
	for name := range current {
		if _, ok := snapshot.Refs[name]; !ok {
			if err := s.repo.DeleteRef(name); err != nil {
				return nil, fmt.Errorf("failed to remove %s: %w", name, err)
			}
		}
	}
	for name, sha := range snapshot.Refs {
		if err := s.repo.UpdateRef(name, parseHash(sha)); err != nil {
			return nil, fmt.Errorf("failed to restore %s: %w", name, err)
		}
	}

	if err := s.repo.DeleteRef(UndoRefPrefix + id); err != nil {
		return nil, err
	}
	return snapshot, nil
}
