package git

import (
	"bytes"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// binarySniffLen is how much of a blob is inspected for NUL bytes
const binarySniffLen = 8000

// MergeLabels name the sides in conflict markers
type MergeLabels struct {
	Ours   string
	Theirs string
}

func (l MergeLabels) withDefaults() MergeLabels {
	if l.Ours == "" {
		l.Ours = "ours"
	}
	if l.Theirs == "" {
		l.Theirs = "theirs"
	}
	return l
}

// hunk is a change of base[i1:i2] into side[j1:j2]
type hunk struct {
	ours   bool
	i1, i2 int
	j1, j2 int
}

// IsBinary reports whether content looks like binary data
func IsBinary(content []byte) bool {
	n := len(content)
	if n > binarySniffLen {
		n = binarySniffLen
	}
	return bytes.IndexByte(content[:n], 0) >= 0
}

// Merge3 performs a line-based three-way merge. Regions changed on only one
// side take that side; regions changed identically on both sides merge
// cleanly; anything else is written between conflict markers.
func Merge3(base, ours, theirs []byte, labels MergeLabels) (merged []byte, conflicted bool) {
	labels = labels.withDefaults()

	baseLines := splitLines(base)
	oursLines := splitLines(ours)
	theirsLines := splitLines(theirs)

	hunks := append(diffHunks(baseLines, oursLines, true), diffHunks(baseLines, theirsLines, false)...)
	sort.SliceStable(hunks, func(i, j int) bool {
		if hunks[i].i1 != hunks[j].i1 {
			return hunks[i].i1 < hunks[j].i1
		}
		return hunks[i].i2 < hunks[j].i2
	})

	var out bytes.Buffer
	cursor := 0
	for i := 0; i < len(hunks); {
		start, end := hunks[i].i1, hunks[i].i2
		var oursGroup, theirsGroup []hunk
		j := i
		for ; j < len(hunks) && hunks[j].i1 <= end; j++ {
			if hunks[j].i2 > end {
				end = hunks[j].i2
			}
			if hunks[j].ours {
				oursGroup = append(oursGroup, hunks[j])
			} else {
				theirsGroup = append(theirsGroup, hunks[j])
			}
		}
		i = j

		writeLines(&out, baseLines[cursor:start])
		cursor = end

		oursText := sideContent(baseLines, oursLines, oursGroup, start, end)
		theirsText := sideContent(baseLines, theirsLines, theirsGroup, start, end)
		switch {
		case len(theirsGroup) == 0:
			writeLines(&out, oursText)
		case len(oursGroup) == 0:
			writeLines(&out, theirsText)
		case equalLines(oursText, theirsText):
			writeLines(&out, oursText)
		default:
			conflicted = true
			out.WriteString("<<<<<<< " + labels.Ours + "\n")
			writeTerminated(&out, oursText)
			out.WriteString("=======\n")
			writeTerminated(&out, theirsText)
			out.WriteString(">>>>>>> " + labels.Theirs + "\n")
		}
	}
	writeLines(&out, baseLines[cursor:])

	return out.Bytes(), conflicted
}

func diffHunks(base, side []string, ours bool) []hunk {
	matcher := difflib.NewMatcherWithJunk(base, side, false, nil)
	var hunks []hunk
	for _, op := range matcher.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		hunks = append(hunks, hunk{ours: ours, i1: op.I1, i2: op.I2, j1: op.J1, j2: op.J2})
	}
	return hunks
}

// sideContent reconstructs what one side holds for base[start:end]
func sideContent(base, side []string, hunks []hunk, start, end int) []string {
	var lines []string
	cursor := start
	for _, h := range hunks {
		lines = append(lines, base[cursor:h.i1]...)
		lines = append(lines, side[h.j1:h.j2]...)
		cursor = h.i2
	}
	return append(lines, base[cursor:end]...)
}

// splitLines splits content into lines that keep their terminators
func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(content), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func writeLines(buf *bytes.Buffer, lines []string) {
	for _, l := range lines {
		buf.WriteString(l)
	}
}

// writeTerminated writes lines and makes sure a marker can follow on its own line
func writeTerminated(buf *bytes.Buffer, lines []string) {
	writeLines(buf, lines)
	if len(lines) > 0 && !strings.HasSuffix(lines[len(lines)-1], "\n") {
		buf.WriteByte('\n')
	}
}
