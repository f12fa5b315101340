// Package bugfix classifies commits of a line history by their message.
package bugfix

import (
	"regexp"
	"sort"
	"strings"

	"github.com/masmgr/gitwho2blame-go/internal/history"
	"github.com/masmgr/gitwho2blame-go/internal/linediff"
)

// Matcher reports whether a commit message describes a bugfix.
type Matcher struct {
	patterns []*regexp.Regexp
}

// Compile builds a Matcher. Patterns match case-insensitively; blank
// entries are ignored.
func Compile(patterns []string) (*Matcher, error) {
	m := &Matcher{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "(?i)") {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		m.patterns = append(m.patterns, re)
	}
	return m, nil
}

// Matches reports whether message matches any pattern.
func (m *Matcher) Matches(message string) bool {
	for _, re := range m.patterns {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}

// LineCount is the number of bugfix commits that wrote one line.
type LineCount struct {
	LineNumber int `json:"lineNumber"`
	Count      int `json:"count"`
}

// Result is the classification of one change history.
type Result struct {
	commits map[string]struct{}
	lines   map[int]int
}

// Contains reports whether sha was classified as a bugfix.
func (r *Result) Contains(sha string) bool {
	_, ok := r.commits[sha]
	return ok
}

// Count returns the number of bugfix commits.
func (r *Result) Count() int { return len(r.commits) }

// Lines returns, per current-revision line, how many bugfix commits added
// or rewrote it, most rewritten first.
func (r *Result) Lines() []LineCount {
	counts := make([]LineCount, 0, len(r.lines))
	for n, c := range r.lines {
		counts = append(counts, LineCount{LineNumber: n, Count: c})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].LineNumber < counts[j].LineNumber
	})
	return counts
}

// Classify marks the bugfix commits among summaries. Deleted lines are
// numbered in the parent revision and do not count toward Lines.
func (m *Matcher) Classify(summaries []history.CodeChangeSummary) *Result {
	r := &Result{commits: make(map[string]struct{}), lines: make(map[int]int)}
	for _, s := range summaries {
		if !m.Matches(s.Message) {
			continue
		}
		r.commits[s.CommitID] = struct{}{}
		for _, line := range s.ChangedLines {
			if line.Kind != linediff.ChangeKindDelete {
				r.lines[line.LineNumber]++
			}
		}
	}
	return r
}
