package git

import (
	"bytes"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
)

// EncodeCommit serializes a commit in git's canonical object format.
// Extra headers are written after the committer line in their stored order;
// multi-line values use git's leading-space continuation.
func EncodeCommit(c *Commit) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "tree %s\n", c.Tree.String())
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p.String())
	}

	buf.WriteString("author ")
	if err := c.Author.Encode(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode author: %w", err)
	}
	buf.WriteString("\ncommitter ")
	if err := c.Committer.Encode(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode committer: %w", err)
	}
	buf.WriteByte('\n')

	for _, h := range c.Headers {
		buf.WriteString(h.Key)
		buf.WriteByte(' ')
		buf.Write(bytes.ReplaceAll(h.Value, []byte("\n"), []byte("\n ")))
		buf.WriteByte('\n')
	}

	buf.WriteByte('\n')
	buf.Write(c.Message)
	return buf.Bytes(), nil
}

// DecodeCommit parses a raw commit object. Unknown headers are kept verbatim
// so that rewriting a commit never loses metadata.
func DecodeCommit(id plumbing.Hash, data []byte) (*Commit, error) {
	c := &Commit{ID: id}

	headers := data
	if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
		headers = data[:i]
		c.Message = append([]byte(nil), data[i+2:]...)
	}

	for _, line := range bytes.Split(headers, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		if line[0] == ' ' {
			if len(c.Headers) == 0 {
				return nil, fmt.Errorf("commit %s: continuation line without header", id)
			}
			last := &c.Headers[len(c.Headers)-1]
			last.Value = append(append(last.Value, '\n'), line[1:]...)
			continue
		}

		key, value, _ := bytes.Cut(line, []byte(" "))
		switch string(key) {
		case "tree":
			c.Tree = plumbing.NewHash(string(value))
		case "parent":
			c.Parents = append(c.Parents, plumbing.NewHash(string(value)))
		case "author":
			c.Author.Decode(value)
		case "committer":
			c.Committer.Decode(value)
		default:
			c.Headers = append(c.Headers, Header{Key: string(key), Value: append([]byte(nil), value...)})
		}
	}

	if c.Tree.IsZero() {
		return nil, fmt.Errorf("commit %s: missing tree header", id)
	}
	return c, nil
}
