package linediff

import "sort"

// LineSet is a deduplicated set of absolute line numbers.
type LineSet map[int]struct{}

// Sorted returns the line numbers in ascending order.
func (s LineSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// KindLines groups line numbers by the change kind of the block they came from.
type KindLines map[ChangeKind]LineSet

func (k KindLines) add(kind ChangeKind, start, count int) {
	if count <= 0 {
		return
	}
	set, ok := k[kind]
	if !ok {
		set = make(LineSet, count)
		k[kind] = set
	}
	for n := start; n < start+count; n++ {
		set[n] = struct{}{}
	}
}

// Lookup resolves the change kind of a line number on one side of a diff.
type Lookup interface {
	KindOf(lineNumber int) ChangeKind
}

// kindLookup resolves overlapping kinds with a fixed precedence so that the
// result does not depend on map iteration order.
type kindLookup struct {
	lines      KindLines
	precedence []ChangeKind
}

func (l kindLookup) KindOf(lineNumber int) ChangeKind {
	for _, kind := range l.precedence {
		if _, ok := l.lines[kind][lineNumber]; ok {
			return kind
		}
	}
	return ChangeKindNone
}

// ExpandedBlocks holds the explicit line sets of a collection of diff blocks.
type ExpandedBlocks struct {
	// Modified is keyed by modified-revision line numbers.
	Modified KindLines
	// Original is keyed by original-revision line numbers.
	Original KindLines
}

// ModifiedLookup resolves kinds for the current (modified) side.
func (e ExpandedBlocks) ModifiedLookup() Lookup {
	return kindLookup{
		lines:      e.Modified,
		precedence: []ChangeKind{ChangeKindEdit, ChangeKindAdd, ChangeKindDelete},
	}
}

// OriginalLookup resolves kinds for the parent (original) side.
func (e ExpandedBlocks) OriginalLookup() Lookup {
	return kindLookup{
		lines:      e.Original,
		precedence: []ChangeKind{ChangeKindEdit, ChangeKindDelete, ChangeKindAdd},
	}
}

// Empty reports whether no line numbers were expanded on either side.
func (e ExpandedBlocks) Empty() bool {
	return len(e.Modified) == 0 && len(e.Original) == 0
}

// RelevantBlocks drops blocks of kind None and blocks whose original and
// modified starts both lie before the window.
func RelevantBlocks(blocks []LineDiffBlock, w Window) []LineDiffBlock {
	relevant := make([]LineDiffBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.ChangeKind == ChangeKindNone {
			continue
		}
		if b.ModifiedStart < w.Start && b.OriginalStart < w.Start {
			continue
		}
		relevant = append(relevant, b)
	}
	return relevant
}

// ExpandBlocks filters blocks with RelevantBlocks and expands the survivors
// into per-kind line sets for both sides. Edit blocks populate both sides.
func ExpandBlocks(blocks []LineDiffBlock, w Window) ExpandedBlocks {
	expanded := ExpandedBlocks{
		Modified: make(KindLines),
		Original: make(KindLines),
	}
	for _, b := range RelevantBlocks(blocks, w) {
		expanded.Modified.add(b.ChangeKind, b.ModifiedStart, b.ModifiedCount)
		expanded.Original.add(b.ChangeKind, b.OriginalStart, b.OriginalCount)
	}
	return expanded
}
