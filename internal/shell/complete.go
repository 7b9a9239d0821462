package shell

import (
	"sort"
	"strings"
)

// subcommands maps a command path to the words that may follow it.
var subcommands = map[string][]string{
	"":               {"cache", "cd", "config", "debug", "exit", "feature", "help", "project", "quit", "readme", "watch"},
	"project":        {"deselect", "files", "ls", "run", "select"},
	"project files":  {"contents", "paths"},
	"config":         {"model", "project", "provider", "show", "temperature"},
	"config project": {"framework", "language", "run", "type"},
	"cache":          {"clear", "show"},
	"help":           {"cache", "config", "debug", "feature", "project", "readme", "watch"},
}

// completer completes the last word of a line from the command tree, or
// from project files after "project select" and "project deselect".
type completer struct {
	files func(deselect bool) []string
}

// Complete returns line with its last word extended by the longest prefix
// shared by every candidate. The line is returned unchanged when nothing
// matches.
func (c completer) Complete(line string) string {
	fields := strings.Fields(line)
	word := ""
	if len(fields) > 0 && !strings.HasSuffix(line, " ") {
		word = fields[len(fields)-1]
		fields = fields[:len(fields)-1]
	}
	candidates := c.candidates(fields)

	var matches []string
	for _, cand := range candidates {
		if strings.HasPrefix(cand, word) {
			matches = append(matches, cand)
		}
	}
	if len(matches) == 0 {
		return line
	}
	completion := commonPrefix(matches)
	if len(matches) == 1 {
		completion += " "
	}
	if len(completion) <= len(word) {
		return line
	}
	return line + completion[len(word):]
}

func (c completer) candidates(fields []string) []string {
	path := strings.Join(fields, " ")
	if words, ok := subcommands[path]; ok {
		return words
	}
	if len(fields) >= 2 && fields[0] == "project" && (fields[1] == "select" || fields[1] == "deselect") && c.files != nil {
		files := c.files(fields[1] == "deselect")
		sort.Strings(files)
		return files
	}
	return nil
}

func commonPrefix(words []string) string {
	prefix := words[0]
	for _, w := range words[1:] {
		for !strings.HasPrefix(w, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
