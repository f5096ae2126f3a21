package git

import (
	"bytes"
	"strconv"
	"unicode/utf8"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Commit header keys carried outside the message
const (
	HeaderChangeID   = "change-id"
	HeaderConflicted = "conflicted"
	HeaderSignature  = "gpgsig"
)

// Header is a raw commit header line that go-git does not model
type Header struct {
	Key   string
	Value []byte
}

// Commit is a decoded commit object with all of its headers preserved.
//
// ID is the content hash and changes on every rewrite. The change id lives in
// the change-id header and survives rewrites of the same logical change.
type Commit struct {
	ID        plumbing.Hash
	Tree      plumbing.Hash
	Parents   []plumbing.Hash
	Author    object.Signature
	Committer object.Signature
	Headers   []Header
	Message   []byte
}

// MessageBytes returns the commit message without assuming any encoding
func (c *Commit) MessageBytes() []byte {
	return c.Message
}

// Subject returns the first line of the message
func (c *Commit) Subject() string {
	msg := bytes.TrimSpace(c.Message)
	if i := bytes.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return string(bytes.TrimSpace(msg))
}

// Header returns the value of the first header with the given key
func (c *Commit) Header(key string) ([]byte, bool) {
	for _, h := range c.Headers {
		if h.Key == key {
			return h.Value, true
		}
	}
	return nil, false
}

// SetHeader replaces the header with the given key, appending it when absent
func (c *Commit) SetHeader(key string, value []byte) {
	for i, h := range c.Headers {
		if h.Key == key {
			c.Headers[i].Value = value
			return
		}
	}
	c.Headers = append(c.Headers, Header{Key: key, Value: value})
}

// RemoveHeader drops every header with the given key
func (c *Commit) RemoveHeader(key string) {
	kept := c.Headers[:0]
	for _, h := range c.Headers {
		if h.Key != key {
			kept = append(kept, h)
		}
	}
	c.Headers = kept
}

// ChangeID returns the stable change identity. A missing, empty or non-UTF-8
// header is reported as absent.
func (c *Commit) ChangeID() (string, bool) {
	v, ok := c.Header(HeaderChangeID)
	if !ok || len(v) == 0 || !utf8.Valid(v) {
		return "", false
	}
	return string(v), true
}

// IsSigned reports whether the commit carries a signature header
func (c *Commit) IsSigned() bool {
	_, ok := c.Header(HeaderSignature)
	return ok
}

// IsConflicted reports whether the commit carries a conflict marker
func (c *Commit) IsConflicted() bool {
	_, ok := c.Header(HeaderConflicted)
	return ok
}

// ConflictedFiles returns the number of conflicted paths recorded on the commit
func (c *Commit) ConflictedFiles() (int, bool) {
	v, ok := c.Header(HeaderConflicted)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// SetConflicted marks the commit as conflicted with count paths
func (c *Commit) SetConflicted(count int) {
	c.SetHeader(HeaderConflicted, []byte(strconv.Itoa(count)))
}

// IsMerge reports whether the commit has more than one parent
func (c *Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// Identity returns the key used to recognise the same logical change across
// rewrites: the change id when present, the hash otherwise.
func (c *Commit) Identity() string {
	if id, ok := c.ChangeID(); ok {
		return id
	}
	return c.ID.String()
}

// Clone returns a deep copy with a zero ID, ready to be modified and written
func (c *Commit) Clone() *Commit {
	clone := &Commit{
		Tree:      c.Tree,
		Parents:   append([]plumbing.Hash(nil), c.Parents...),
		Author:    c.Author,
		Committer: c.Committer,
		Message:   append([]byte(nil), c.Message...),
	}
	for _, h := range c.Headers {
		clone.Headers = append(clone.Headers, Header{Key: h.Key, Value: append([]byte(nil), h.Value...)})
	}
	return clone
}
