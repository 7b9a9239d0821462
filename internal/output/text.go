package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/aidebug/aidebug/internal/suggest"
)

const (
	cachedHeader = "Using cached suggestions:"
	freshHeader  = "Suggestions:"
)

// TextWriter outputs the suggestion for a terminal.
type TextWriter struct {
	// Quiet omits the context footer.
	Quiet bool
}

func (t *TextWriter) Write(w io.Writer, report *suggest.Report) error {
	ew := &errWriter{w: w}

	if report.Streamed {
		// The header and body were printed by StreamPrinter.
		ew.println("")
	} else {
		if report.Cached {
			ew.println(cachedColor.Sprint(cachedHeader))
		} else {
			ew.println(headerColor.Sprint(freshHeader))
		}
		ew.println(strings.TrimRight(report.Response, "\n"))
	}

	if t.Quiet {
		return ew.err
	}

	ew.println("")
	ew.println(dimColor.Sprint(strings.Repeat("─", 60)))
	if len(report.Files) > 0 {
		ew.println(dimColor.Sprintf("Files: %s", strings.Join(report.Files, ", ")))
	}
	if len(report.Missing) > 0 {
		ew.println(warnColor.Sprintf("Missing: %s", strings.Join(report.Missing, ", ")))
	}
	if len(report.Redacted) > 0 {
		ew.println(warnColor.Sprintf("Redacted %d secret(s): %s", len(report.Redacted), strings.Join(report.Redacted, ", ")))
	}
	source := "computed"
	if report.Cached {
		source = "cache"
	}
	ew.println(dimColor.Sprintf("%s/%s | %s | digest %s | %dms (LLM: %dms)",
		report.Provider, report.Model, source, report.Digest, report.Timing.TotalMs, report.Timing.LLMMs))
	return ew.err
}

// StreamPrinter returns a delta sink that prints the "Suggestions:" header
// before the first chunk and then each chunk as it arrives.
func StreamPrinter(w io.Writer) func(string) {
	started := false
	return func(s string) {
		if !started {
			started = true
			fmt.Fprintln(w, headerColor.Sprint(freshHeader))
		}
		fmt.Fprint(w, s)
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
