package output

import (
	"fmt"
	"io"
	"os"

	"github.com/aidebug/aidebug/internal/suggest"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *suggest.Report) error
}

// Formats lists the supported format names.
var Formats = []string{"text", "json", "markdown"}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to outPath, or to stdout when outPath is
// empty. A file always receives the full response even if it was streamed
// to the terminal.
func WriteReport(report *suggest.Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}
	if outPath == "" {
		return writer.Write(os.Stdout, report)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	full := *report
	full.Streamed = false
	return writer.Write(f, &full)
}
