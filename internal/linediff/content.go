package linediff

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// Classifier turns a line of one revision into a CodeLine, or reports false
// to skip it.
type Classifier func(kind ChangeKind, lineNumber int, text string) (CodeLine, bool)

// ClassifyDeleted emits parent-side lines that belong to Delete or Edit blocks.
func ClassifyDeleted(kind ChangeKind, lineNumber int, text string) (CodeLine, bool) {
	switch kind {
	case ChangeKindDelete, ChangeKindEdit:
		return Delete(lineNumber, text), true
	default:
		return CodeLine{}, false
	}
}

// ClassifyAdded emits current-side lines that belong to Add or Edit blocks.
func ClassifyAdded(kind ChangeKind, lineNumber int, text string) (CodeLine, bool) {
	switch kind {
	case ChangeKindAdd, ChangeKindEdit:
		return Add(lineNumber, text), true
	default:
		return CodeLine{}, false
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadWindow reads content line by line from line 1 and classifies every
// line inside w. When lookup is nil every line is given defaultKind.
// Reading stops at the first line past the window.
func ReadWindow(content []byte, w Window, lookup Lookup, defaultKind ChangeKind, classify Classifier) []CodeLine {
	var lines []CodeLine

	reader := bufio.NewReader(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM)))
	lineNumber := 1
	for lineNumber <= w.End {
		text, err := reader.ReadString('\n')
		if text == "" && err != nil {
			break
		}

		if lineNumber >= w.Start {
			text = strings.TrimSuffix(strings.TrimSuffix(text, "\n"), "\r")
			kind := defaultKind
			if lookup != nil {
				kind = lookup.KindOf(lineNumber)
			}
			if line, ok := classify(kind, lineNumber, text); ok {
				lines = append(lines, line)
			}
		}

		if err == io.EOF {
			break
		}
		lineNumber++
	}

	return lines
}
