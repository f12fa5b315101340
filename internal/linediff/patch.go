package linediff

import (
	"regexp"
	"strconv"
	"strings"
)

// HunkBound selects how eagerly hunks are pre-filtered against the window.
// The bound only affects which hunk bodies are walked; emitted lines are
// always restricted to the window.
type HunkBound int

const (
	// BoundStrict skips a hunk when neither its original nor its modified
	// span overlaps the window.
	BoundStrict HunkBound = iota
	// BoundLenient only skips hunks that start after the window ends.
	BoundLenient
)

var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// hunkHeader holds the ranges declared by a "@@ -o,oc +n,nc @@" line.
type hunkHeader struct {
	origStart int
	origCount int
	newStart  int
	newCount  int
}

// candidate reports whether the hunk can contribute lines to w.
func (h hunkHeader) candidate(w Window, bound HunkBound) bool {
	if bound == BoundLenient {
		return h.newStart <= w.End || h.origStart <= w.End
	}
	return spanIntersects(h.newStart, h.newCount, w) || spanIntersects(h.origStart, h.origCount, w)
}

// parseHunkHeader parses a hunk header line. Missing counts default to 1.
func parseHunkHeader(line string) (hunkHeader, bool) {
	m := hunkHeaderRegex.FindStringSubmatch(line)
	if m == nil {
		return hunkHeader{}, false
	}
	return hunkHeader{
		origStart: atoiDefault(m[1], 0),
		origCount: atoiDefault(m[2], 1),
		newStart:  atoiDefault(m[3], 0),
		newCount:  atoiDefault(m[4], 1),
	}, true
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// hunkCursor tracks the running counters of the hunk being walked.
type hunkCursor struct {
	header    hunkHeader
	added     int
	deleted   int
	unchanged int
}

// ParsePatch extracts the added and deleted lines of a single-file unified
// diff that fall inside w. Added lines are numbered in the modified revision,
// deleted lines in the original revision. Lines are returned in patch order.
func ParsePatch(patch string, w Window, bound HunkBound) []CodeLine {
	var lines []CodeLine
	var cur *hunkCursor

	for _, line := range strings.Split(patch, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if header, ok := parseHunkHeader(line); ok {
			cur = nil
			if header.candidate(w, bound) {
				cur = &hunkCursor{header: header}
			}
			continue
		}
		if strings.HasPrefix(line, "diff --git ") {
			cur = nil
			continue
		}
		if cur == nil {
			continue
		}

		// Blank lines and "\ No newline at end of file" markers leave the
		// counters untouched.
		if line == "" || line[0] == '\\' {
			continue
		}

		switch line[0] {
		case '+':
			n := cur.header.newStart + cur.added + cur.unchanged
			if w.Contains(n) {
				lines = append(lines, CodeLine{LineNumber: n, Content: line, Kind: ChangeKindAdd})
			}
			cur.added++
		case '-':
			n := cur.header.origStart + cur.deleted + cur.unchanged
			if w.Contains(n) {
				lines = append(lines, CodeLine{LineNumber: n, Content: line, Kind: ChangeKindDelete})
			}
			cur.deleted++
		default:
			cur.unchanged++
		}
	}

	return lines
}
