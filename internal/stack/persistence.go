package stack

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

const (
	// RefPrefix is the namespace for all stack state
	RefPrefix = "refs/stacks/"
	// MetaRefPrefix is where stack records are stored, one blob per stack id
	MetaRefPrefix = RefPrefix + "meta/"
	// HeadRefPrefix keeps every stack head reachable for git gc
	HeadRefPrefix = RefPrefix + "heads/"
	// TargetRef stores the default target
	TargetRef = RefPrefix + "target"
	// ConflictsRef stores the paths with unresolved conflicts
	ConflictsRef = RefPrefix + "conflicts"
	// UndoRefPrefix is where undo snapshots are stored
	UndoRefPrefix = RefPrefix + "undo/"
)

// stackRecord is the persisted form of a Stack
type stackRecord struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Head          string    `json:"head"`
	Tree          string    `json:"tree"`
	AllowRebasing bool      `json:"allow_rebasing"`
	Upstream      *Upstream `json:"upstream,omitempty"`
	UpstreamHead  string    `json:"upstream_head,omitempty"`
	Order         int       `json:"order"`
	Series        []Series  `json:"series,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type targetRecord struct {
	Ref    string `json:"ref"`
	Remote string `json:"remote"`
	Base   string `json:"base"`
}

type conflictsRecord struct {
	Paths []string `json:"paths"`
}

func hashString(h plumbing.Hash) string {
	if h.IsZero() {
		return ""
	}
	return h.String()
}

func parseHash(s string) plumbing.Hash {
	if s == "" {
		return plumbing.ZeroHash
	}
	return plumbing.NewHash(s)
}

func marshalStack(s *Stack) ([]byte, error) {
	record := stackRecord{
		ID:            s.ID,
		Name:          s.Name,
		Head:          hashString(s.Head),
		Tree:          hashString(s.Tree),
		AllowRebasing: s.AllowRebasing,
		Upstream:      s.Upstream,
		UpstreamHead:  hashString(s.UpstreamHead),
		Order:         s.Order,
		Series:        s.Series,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stack %s: %w", s.ID, err)
	}
	return data, nil
}

func unmarshalStack(data []byte) (*Stack, error) {
	var record stackRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stack: %w", err)
	}
	return &Stack{
		ID:            record.ID,
		Name:          record.Name,
		Head:          parseHash(record.Head),
		Tree:          parseHash(record.Tree),
		AllowRebasing: record.AllowRebasing,
		Upstream:      record.Upstream,
		UpstreamHead:  parseHash(record.UpstreamHead),
		Order:         record.Order,
		Series:        record.Series,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}, nil
}
