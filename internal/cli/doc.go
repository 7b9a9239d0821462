// Package cli wires together the Cobra command tree for the aidebug binary.
//
// Without arguments it starts the interactive console. The debug, feature
// and readme subcommands answer one request through the suggestion cache;
// project, config, cache, models and watch expose the rest of the console
// to scripts. Handlers return deterministic exit codes.
package cli
