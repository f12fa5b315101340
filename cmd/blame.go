package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitwho2blame-go/internal/git"
	"github.com/masmgr/gitwho2blame-go/internal/output"
)

// BlameCmd returns the blame command.
func BlameCmd() *cli.Command {
	return &cli.Command{
		Name:   "blame",
		Usage:  "Show who last changed each line of a range in a local repository",
		Flags:  append(windowFlags(), outputFlags()...),
		Action: blameAction,
	}
}

func blameAction(c *cli.Context) error {
	window := windowFromFlags(c)
	if err := window.Validate(); err != nil {
		return err
	}

	repo, err := git.DiscoverRepository(c.String("repo"))
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}
	lines, err := repo.Blame(c.Context, c.String("file"), window)
	if err != nil {
		return err
	}

	return writeBlameReport(c, &output.BlameReport{
		RepoPath:    repo.Root,
		FilePath:    c.String("file"),
		Window:      window,
		GeneratedAt: time.Now(),
		Lines:       lines,
	})
}
