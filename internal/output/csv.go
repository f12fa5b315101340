package output

import (
	"encoding/csv"
	"strconv"
)

// CSVChangesWriter writes change history reports as CSV, one row per
// changed line.
type CSVChangesWriter struct{}

// Write outputs the change history report as CSV.
func (w *CSVChangesWriter) Write(report *ChangesReport, options OutputOptions) error {
	items := limitTop(report.Items, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}
	writer := csv.NewWriter(out)

	headers := []string{"CommitSHA", "Author", "Date", "Bugfix", "Subject", "LineNumber", "Change", "Content"}
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, item := range items {
		for _, line := range item.ChangedLines {
			row := []string{
				item.CommitID,
				item.Author,
				item.Timestamp.Format(reportDateTimeLayout),
				strconv.FormatBool(item.Bugfix),
				subject(item.Message),
				strconv.Itoa(line.LineNumber),
				line.Kind.String(),
				line.Text(),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// CSVBlameWriter writes blame reports as CSV.
type CSVBlameWriter struct{}

// Write outputs the blame report as CSV.
func (w *CSVBlameWriter) Write(report *BlameReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}
	writer := csv.NewWriter(out)

	if err := writer.Write([]string{"LineNumber", "CommitSHA", "Author", "AuthorEmail", "Date", "Content"}); err != nil {
		return err
	}
	for _, l := range report.Lines {
		row := []string{
			strconv.Itoa(l.LineNumber),
			l.CommitSHA,
			l.Author,
			l.AuthorEmail,
			l.Date.Format(reportDateTimeLayout),
			l.Content,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
