package linediff

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow is returned when a line window is empty or not 1-based.
var ErrInvalidWindow = errors.New("invalid line window")

// ChangeKind represents the type of change a diff block or line carries.
type ChangeKind int

const (
	ChangeKindNone ChangeKind = iota
	ChangeKindAdd
	ChangeKindDelete
	ChangeKindEdit
)

// String returns a string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeKindNone:
		return "none"
	case ChangeKindAdd:
		return "add"
	case ChangeKindDelete:
		return "delete"
	case ChangeKindEdit:
		return "edit"
	default:
		return "unknown"
	}
}

// ParseChangeKind converts a back-end change type name into a ChangeKind.
// Unrecognized names map to ChangeKindNone.
func ParseChangeKind(s string) ChangeKind {
	switch s {
	case "add", "Add", "added":
		return ChangeKindAdd
	case "delete", "Delete", "deleted", "removed":
		return ChangeKindDelete
	case "edit", "Edit", "modified":
		return ChangeKindEdit
	default:
		return ChangeKindNone
	}
}

// CodeLine is a single changed line. Content carries the sign ('+' or '-')
// as its first character.
type CodeLine struct {
	LineNumber int        `json:"lineNumber"`
	Content    string     `json:"content"`
	Kind       ChangeKind `json:"-"`
}

// Add builds an added line numbered in the modified revision.
func Add(lineNumber int, text string) CodeLine {
	return CodeLine{LineNumber: lineNumber, Content: "+" + text, Kind: ChangeKindAdd}
}

// Delete builds a deleted line numbered in the original revision.
func Delete(lineNumber int, text string) CodeLine {
	return CodeLine{LineNumber: lineNumber, Content: "-" + text, Kind: ChangeKindDelete}
}

// Text returns the line content without its sign.
func (l CodeLine) Text() string {
	if len(l.Content) == 0 {
		return ""
	}
	return l.Content[1:]
}

// LineDiffBlock describes one contiguous run of changed lines between two
// revisions of a file. It carries no text.
type LineDiffBlock struct {
	ChangeKind    ChangeKind
	OriginalStart int
	OriginalCount int
	ModifiedStart int
	ModifiedCount int
}

// Window is an inclusive, 1-based line range.
type Window struct {
	Start int
	End   int
}

// Contains reports whether lineNumber lies within the window.
func (w Window) Contains(lineNumber int) bool {
	return lineNumber >= w.Start && lineNumber <= w.End
}

// Validate checks that the window is 1-based and non-empty.
func (w Window) Validate() error {
	if w.Start < 1 {
		return fmt.Errorf("%w: start line %d must be >= 1", ErrInvalidWindow, w.Start)
	}
	if w.End < w.Start {
		return fmt.Errorf("%w: end line %d is before start line %d", ErrInvalidWindow, w.End, w.Start)
	}
	return nil
}

// String formats the window as "start-end".
func (w Window) String() string {
	return fmt.Sprintf("%d-%d", w.Start, w.End)
}

// spanIntersects reports whether the span [start, start+count-1] overlaps w.
// Empty spans never intersect.
func spanIntersects(start, count int, w Window) bool {
	if count <= 0 {
		return false
	}
	end := start + count - 1
	return end >= w.Start && start <= w.End
}
