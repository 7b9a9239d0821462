// Package workspace tracks the project files a session sends to the LLM.
//
// Collect lists candidate source files under a project root, skipping hidden
// and virtualenv directories, .gitignore matches, binary files and files over
// the size limit. A Selection holds the chosen paths; Files re-reads their
// current content from disk on every call so a fingerprint always reflects
// what is on disk now. Bundle renders files into the canonical content string
// that is fingerprinted and sent.
//
// Project settings and the selection persist in .aidebug.yaml at the project
// root.
package workspace
