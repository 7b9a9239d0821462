// Package shell implements the interactive AIDebug console.
//
// The console keeps one session open: the project selection, the model
// settings and the suggestion cache. Lines starting with a known command
// are dispatched to it; cd changes the directory used for other lines,
// and any other line runs in the system shell. On a terminal the console
// edits lines in raw mode with history and tab completion; otherwise it
// reads plain lines so it can be scripted.
package shell
