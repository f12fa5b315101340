package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitwho2blame-go/config"
	"github.com/masmgr/gitwho2blame-go/internal/output"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "gitwho2blame",
		Usage:   "Line-range change history for Git repositories, as a CLI and an MCP server",
		Version: Version,
		Commands: []*cli.Command{
			ServeCmd(),
			ChangesCmd(),
			BlameCmd(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (.json or .yaml)",
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "Git context provider (local, github, azure)",
			},
			&cli.StringFlag{
				Name:  "log-path",
				Usage: `Log file path ("-" for stderr)`,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
	}
}

// Flags shared by the line-range commands.
func windowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "Path to the local repository checkout",
			Value:   ".",
		},
		&cli.StringFlag{
			Name:     "file",
			Usage:    "File path relative to the repository root",
			Required: true,
		},
		&cli.IntFlag{
			Name:     "start",
			Aliases:  []string{"s"},
			Usage:    "First line of the range (1-based)",
			Required: true,
		},
		&cli.IntFlag{
			Name:    "end",
			Aliases: []string{"e"},
			Usage:   "Last line of the range (default: start)",
		},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (console, json, csv, markdown, ci)",
			Value:   "console",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
	}
}

// parseDateFlag parses a date string flag.
func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
}

// getOutputFormat parses the output format flag.
func getOutputFormat(s string) output.OutputFormat {
	switch s {
	case "json":
		return output.FormatJSON
	case "csv":
		return output.FormatCSV
	case "markdown", "md":
		return output.FormatMarkdown
	case "ci", "ndjson":
		return output.FormatCI
	default:
		return output.FormatConsole
	}
}

// loadConfig loads configuration from file or defaults, then applies the
// flag overrides present on c.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if v := c.String("provider"); v != "" {
		cfg.Provider = v
	}
	if v := c.String("log-path"); v != "" {
		cfg.Log.Path = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v := c.String("transport"); v != "" {
		cfg.Transport = v
	}
	if v := c.String("addr"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := c.String("engine"); v != "" {
		cfg.Local.Engine = v
	}
	if v := c.Int("since-days"); v > 0 {
		cfg.Defaults.SinceDays = v
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Filters.Exclude = excludes
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run executes the CLI application.
func Run() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
