package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitwho2blame-go/internal/output"
)

// OutputOptions creates OutputOptions from CLI flags.
func OutputOptions(c *cli.Context) output.OutputOptions {
	return output.OutputOptions{
		Format:     getOutputFormat(c.String("format")),
		Top:        c.Int("top"),
		OutputPath: c.String("output"),
	}
}

func writeChangesReport(c *cli.Context, report *output.ChangesReport) error {
	opts := OutputOptions(c)
	writer := output.NewChangesReportWriter(opts.Format)
	return writer.Write(report, opts)
}

func writeBlameReport(c *cli.Context, report *output.BlameReport) error {
	opts := OutputOptions(c)
	writer := output.NewBlameReportWriter(opts.Format)
	return writer.Write(report, opts)
}
