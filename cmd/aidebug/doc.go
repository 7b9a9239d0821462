// AIDebug is an interactive console that asks an LLM to debug errors,
// implement features and write READMEs for the files you select.
//
// Suggestions are cached against a fingerprint of the selected files, so
// asking the same question about unchanged code is answered locally.
//
// Usage:
//
//	aidebug                              # start the console
//	aidebug project select main.py lib/  # choose the files sent to the model
//	python main.py 2>&1 | aidebug debug  # debug an error from stdin
//	aidebug feature add a --verbose flag
//	aidebug readme
//	aidebug watch debug "KeyError: 'id'" # re-ask whenever the files change
//	aidebug cache show
package main
