package output

import (
	"io"
	"strings"

	"github.com/aidebug/aidebug/internal/suggest"
)

var modeTitles = map[suggest.Mode]string{
	suggest.ModeDebug:   "Debug suggestions",
	suggest.ModeFeature: "Feature suggestions",
	suggest.ModeReadme:  "README",
}

// MarkdownWriter outputs the suggestion as a markdown document.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *suggest.Report) error {
	ew := &errWriter{w: w}

	title, ok := modeTitles[report.Mode]
	if !ok {
		title = "Suggestions"
	}
	ew.printf("## AIDebug %s\n\n", title)
	if report.Query != "" {
		ew.printf("> %s\n\n", strings.ReplaceAll(strings.TrimSpace(report.Query), "\n", "\n> "))
	}

	ew.printf("%s\n\n", strings.TrimRight(report.Response, "\n"))

	ew.printf("<details>\n<summary>Context</summary>\n\n")
	ew.printf("| | |\n|---|---|\n")
	ew.printf("| Provider | %s |\n", report.Provider)
	ew.printf("| Model | %s |\n", report.Model)
	ew.printf("| Cached | %t |\n", report.Cached)
	ew.printf("| Digest | `%s` |\n", report.Digest)
	if report.Repo != nil && report.Repo.Head != "" {
		ew.printf("| Commit | `%s` (%s) |\n", report.Repo.Head, report.Repo.Branch)
	}
	ew.printf("\n")
	if len(report.Files) > 0 {
		ew.printf("Files:\n\n")
		for _, f := range report.Files {
			ew.printf("- `%s`\n", f)
		}
		ew.printf("\n")
	}
	if len(report.Redacted) > 0 {
		ew.printf("%d secret(s) redacted before sending.\n\n", len(report.Redacted))
	}
	ew.printf("</details>\n\n")
	ew.printf("*Completed in %dms (LLM: %dms)*\n", report.Timing.TotalMs, report.Timing.LLMMs)
	return ew.err
}
