package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/masmgr/gitwho2blame-go/internal/bugfix"
)

const (
	reportDateLayout     = "2006-01-02"
	reportDateTimeLayout = "2006-01-02T15:04:05"
)

// stdout is swapped by tests.
var stdout io.Writer = os.Stdout

func limitTop[T any](items []T, top int) []T {
	if top <= 0 || top >= len(items) {
		return items
	}
	return items[:top]
}

func sinceLabel(since time.Time) string {
	if since.IsZero() {
		return "beginning of history"
	}
	return since.Format(reportDateLayout)
}

func openOutputWriter(outputPath string) (io.Writer, *os.File, error) {
	if outputPath == "" {
		return stdout, nil, nil
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func subject(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return strings.TrimRight(message[:i], "\r")
	}
	return message
}

func truncateMessage(msg string, maxLen int) string {
	if len(msg) <= maxLen {
		return msg
	}
	return msg[:maxLen-3] + "..."
}

// bugfixLinesLabel renders counts as "11 (2), 10 (1)".
func bugfixLinesLabel(counts []bugfix.LineCount) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%d (%d)", c.LineNumber, c.Count)
	}
	return strings.Join(parts, ", ")
}
