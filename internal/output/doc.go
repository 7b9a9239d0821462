// Package output formats suggestion reports for display or machine
// consumption.
//
// Three formats are supported:
//   - text: coloured terminal output (default)
//   - json: the full structured report
//   - markdown: the suggestion with a collapsible context section
//
// Use [GetWriter] to obtain a [Writer] for a format string, or [WriteReport]
// to write to a file or stdout. [StreamPrinter] prints response text while
// it is generated.
package output
