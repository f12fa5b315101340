package linediff

// MergeChanges merges parent-side and current-side lines, each sorted by line
// number, into one sequence. At every step the side with the smaller head
// (parent on ties) is chosen and its whole run of consecutive line numbers is
// taken before heads are compared again.
func MergeChanges(parent, current []CodeLine) []CodeLine {
	merged := make([]CodeLine, 0, len(parent)+len(current))
	i, j := 0, 0

	for i < len(parent) || j < len(current) {
		if i < len(parent) && (j >= len(current) || parent[i].LineNumber <= current[j].LineNumber) {
			merged, i = appendRun(merged, parent, i)
		} else {
			merged, j = appendRun(merged, current, j)
		}
	}

	return merged
}

// appendRun appends lines[start] and every following line whose number is
// exactly one more than its predecessor. It returns the index after the run.
func appendRun(dst, lines []CodeLine, start int) ([]CodeLine, int) {
	dst = append(dst, lines[start])
	next := start + 1
	for next < len(lines) && lines[next].LineNumber == lines[next-1].LineNumber+1 {
		dst = append(dst, lines[next])
		next++
	}
	return dst, next
}
