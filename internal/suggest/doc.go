// Package suggest turns a query and the selected project files into an LLM
// suggestion, answering from the suggestion cache when the files have not
// changed since the same query was last asked.
//
// There are three modes. Debug explains and fixes an error, feature
// implements a programmer's request and readme writes or updates the
// project README. Each mode has its own system prompt and its own cache
// slots.
package suggest
