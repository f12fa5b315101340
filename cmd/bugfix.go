package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitwho2blame-go/config"
	"github.com/masmgr/gitwho2blame-go/internal/bugfix"
	"github.com/masmgr/gitwho2blame-go/internal/history"
	"github.com/masmgr/gitwho2blame-go/internal/output"
)

func resolveBugPatterns(c *cli.Context, cfg *config.Config) []string {
	if patterns := c.StringSlice("bug-patterns"); len(patterns) > 0 {
		return patterns
	}
	return cfg.Bugfix.Patterns
}

// flagBugfixes marks the bugfix commits of summaries and counts the window
// lines they rewrote.
func flagBugfixes(summaries []history.CodeChangeSummary, patterns []string) ([]output.ChangeItem, []bugfix.LineCount, error) {
	matcher, err := bugfix.Compile(patterns)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid bug pattern: %w", err)
	}

	result := matcher.Classify(summaries)
	items := make([]output.ChangeItem, len(summaries))
	for i, s := range summaries {
		items[i] = output.ChangeItem{CodeChangeSummary: s, Bugfix: result.Contains(s.CommitID)}
	}
	return items, result.Lines(), nil
}
