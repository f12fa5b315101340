package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitwho2blame-go/internal/git"
	"github.com/masmgr/gitwho2blame-go/internal/linediff"
	"github.com/masmgr/gitwho2blame-go/internal/output"
)

// ChangesCmd returns the changes command.
func ChangesCmd() *cli.Command {
	flags := append(windowFlags(), outputFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:  "repo-name",
			Usage: "Repository name on the hosting service (default: checkout directory name)",
		},
		&cli.StringFlag{
			Name:  "owner",
			Usage: "Repository owner (default: from the origin remote)",
		},
		&cli.StringFlag{
			Name:    "branch",
			Aliases: []string{"b"},
			Usage:   "Branch (default: current branch)",
		},
		&cli.StringFlag{
			Name:  "since",
			Usage: "Only include commits after this date (YYYY-MM-DD)",
		},
		&cli.IntFlag{
			Name:  "since-days",
			Usage: "Look-back in days when --since is not given",
		},
		&cli.StringFlag{
			Name:  "engine",
			Usage: "Local git engine (gogit, gitcli)",
		},
		&cli.IntFlag{
			Name:    "top",
			Aliases: []string{"n"},
			Usage:   "Number of most recent commits to show (0 for all)",
		},
		&cli.StringSliceFlag{
			Name:  "bug-patterns",
			Usage: "Regex patterns marking bugfix commits (can be specified multiple times)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Glob patterns of paths never looked up (can be specified multiple times)",
		},
	)

	return &cli.Command{
		Name:   "changes",
		Usage:  "Summarize the commits that changed a line range",
		Flags:  flags,
		Action: changesAction,
	}
}

func changesAction(c *cli.Context) error {
	window := windowFromFlags(c)
	if err := window.Validate(); err != nil {
		return err
	}
	since, err := parseDateFlag(c.String("since"))
	if err != nil {
		return err
	}

	cc, err := NewCommandContext(c)
	if err != nil {
		return err
	}
	defer cc.Close()

	repoRoot := c.String("repo")
	repoName, owner, branch, err := resolveRepoIdentity(c, repoRoot)
	if err != nil {
		return err
	}

	sinceTime := time.Now().AddDate(0, 0, -cc.Config.Defaults.SinceDays)
	if since != nil {
		sinceTime = *since
	}

	summaries, err := cc.Provider.GetCodeChanges(c.Context,
		c.String("file"), repoRoot, repoName, owner, branch,
		window.Start, window.End, sinceTime)
	if err != nil {
		return fmt.Errorf("failed to read changes: %w", err)
	}

	items, bugfixLines, err := flagBugfixes(summaries, resolveBugPatterns(c, cc.Config))
	if err != nil {
		return err
	}

	report := &output.ChangesReport{
		Provider:    cc.Provider.Name(),
		RepoName:    repoName,
		FilePath:    c.String("file"),
		Window:      window,
		Since:       sinceTime,
		GeneratedAt: time.Now(),
		Items:       items,
		BugfixLines: bugfixLines,
	}
	return writeChangesReport(c, report)
}

func windowFromFlags(c *cli.Context) linediff.Window {
	w := linediff.Window{Start: c.Int("start"), End: c.Int("end")}
	if w.End == 0 {
		w.End = w.Start
	}
	return w
}

// resolveRepoIdentity fills repo name, owner and branch from the local
// checkout where the flags leave them empty.
func resolveRepoIdentity(c *cli.Context, repoRoot string) (repoName, owner, branch string, err error) {
	repoName, owner, branch = c.String("repo-name"), c.String("owner"), c.String("branch")
	if repoName != "" && owner != "" && branch != "" {
		return repoName, owner, branch, nil
	}

	repo, err := git.DiscoverRepository(repoRoot)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to open repository: %w", err)
	}
	if repoName == "" {
		repoName = filepath.Base(repo.Root)
	}
	if owner == "" {
		remoteOwner, ok, err := repo.Owner()
		if err != nil {
			return "", "", "", err
		}
		if ok {
			owner = remoteOwner
		} else {
			owner = git.UnknownOwner
		}
	}
	if branch == "" {
		branch, err = repo.CurrentBranch()
		if err != nil {
			return "", "", "", fmt.Errorf("could not determine the current branch: %w", err)
		}
	}
	return repoName, owner, branch, nil
}
