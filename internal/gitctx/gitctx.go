package gitctx

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned by Open outside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string `json:"root"`
	Head   string `json:"head,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// Repo is an opened repository.
type Repo struct {
	repo *git.Repository
	root string
}

// Open finds the repository containing dir.
func Open(dir string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("opening worktree: %w", err)
	}
	return &Repo{repo: r, root: canonical(wt.Filesystem.Root())}, nil
}

// Root is the absolute work tree path.
func (r *Repo) Root() string {
	return r.root
}

// Meta collects HEAD and branch. A repository without commits has an empty
// Head and Branch.
func (r *Repo) Meta() RepoMeta {
	meta := RepoMeta{Root: r.root}
	head, err := r.repo.Head()
	if err != nil {
		return meta
	}
	meta.Head = head.Hash().String()
	if head.Name().IsBranch() {
		meta.Branch = head.Name().Short()
	}
	return meta
}

// ChangedFiles returns modified, added, renamed and untracked files relative
// to dir, using forward slashes, sorted. Deleted files and files outside dir
// are omitted.
func (r *Repo) ChangedFiles(dir string) ([]string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("opening worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}
	absDir := canonical(dir)

	var files []string
	for path, st := range status {
		if st.Worktree == git.Deleted || (st.Staging == git.Deleted && st.Worktree == git.Unmodified) {
			continue
		}
		if st.Worktree == git.Unmodified && st.Staging == git.Unmodified {
			continue
		}
		rel, ok := relativeTo(absDir, filepath.Join(r.root, filepath.FromSlash(path)))
		if !ok {
			continue
		}
		files = append(files, rel)
	}
	sort.Strings(files)
	return files, nil
}

// TrackedFiles lists the paths in the index relative to dir.
func (r *Repo) TrackedFiles(dir string) ([]string, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	absDir := canonical(dir)
	var files []string
	for _, e := range idx.Entries {
		if rel, ok := relativeTo(absDir, filepath.Join(r.root, filepath.FromSlash(e.Name))); ok {
			files = append(files, rel)
		}
	}
	sort.Strings(files)
	return files, nil
}

// canonical returns an absolute path with symlinks resolved where possible.
func canonical(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	return p
}

func relativeTo(dir, path string) (string, bool) {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// MatchesAny returns true if the path matches any of the given glob patterns.
// A leading "**/" matches at any depth.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean == pattern {
			continue
		}
		if matched, err := filepath.Match(clean, filepath.Base(path)); err == nil && matched {
			return true
		}
		if matched, err := filepath.Match(clean, path); err == nil && matched {
			return true
		}
	}
	return false
}
