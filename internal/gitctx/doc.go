// Package gitctx reads repository metadata and working-tree status with
// go-git, without shelling out to a git binary.
//
// The shell uses it to show the current branch, to select every changed file
// with `project select --changed`, and to add repository context to prompts.
package gitctx
