package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/aidebug/aidebug/internal/gitctx"
)

// File is a selected file with the content read from disk.
type File struct {
	Path    string
	Content string
}

// Workspace is a project root with its selection and profile.
type Workspace struct {
	fs      afero.Fs
	root    string
	opts    Options
	sel     *Selection
	profile *Profile
}

// Open loads the profile under root and restores its selection.
func Open(fsys afero.Fs, root string, opts Options) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	p, err := LoadProfile(fsys, abs)
	if err != nil {
		return nil, err
	}
	return &Workspace{
		fs:      fsys,
		root:    abs,
		opts:    opts,
		sel:     NewSelection(p.Files...),
		profile: p,
	}, nil
}

func (w *Workspace) Root() string          { return w.root }
func (w *Workspace) Fs() afero.Fs          { return w.fs }
func (w *Workspace) Selection() *Selection { return w.sel }
func (w *Workspace) Profile() *Profile     { return w.profile }

// Save persists the profile and the current selection.
func (w *Workspace) Save() error {
	w.profile.Files = w.sel.Paths()
	return SaveProfile(w.fs, w.root, w.profile)
}

// Candidates lists the collectable files under the root.
func (w *Workspace) Candidates() ([]string, error) {
	return Collect(w.fs, w.root, w.opts)
}

// Select resolves each argument and adds the result to the selection. An
// argument is a 1-based index into Candidates, a glob pattern ("**/" matches
// at any depth), a directory (all candidates below it) or a file path.
func (w *Workspace) Select(args ...string) ([]string, error) {
	var candidates []string
	loadCandidates := func() ([]string, error) {
		if candidates == nil {
			c, err := w.Candidates()
			if err != nil {
				return nil, err
			}
			candidates = c
		}
		return candidates, nil
	}

	var resolved []string
	for _, arg := range args {
		paths, err := w.resolve(arg, loadCandidates)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, paths...)
	}
	return w.sel.Add(resolved...), nil
}

// SelectPaths adds already-resolved relative paths, e.g. from git status.
// Paths that are not collectable files are skipped.
func (w *Workspace) SelectPaths(paths []string) ([]string, error) {
	candidates, err := w.Candidates()
	if err != nil {
		return nil, err
	}
	ok := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		ok[c] = true
	}
	var keep []string
	for _, p := range paths {
		if ok[normalize(p)] {
			keep = append(keep, p)
		}
	}
	return w.sel.Add(keep...), nil
}

func (w *Workspace) resolve(arg string, candidates func() ([]string, error)) ([]string, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		list, err := candidates()
		if err != nil {
			return nil, err
		}
		if n < 1 || n > len(list) {
			return nil, fmt.Errorf("file number %d out of range (1-%d)", n, len(list))
		}
		return []string{list[n-1]}, nil
	}

	if strings.ContainsAny(arg, "*?[") {
		list, err := candidates()
		if err != nil {
			return nil, err
		}
		var matched []string
		for _, c := range list {
			if gitctx.MatchesAny(c, []string{arg}) {
				matched = append(matched, c)
			}
		}
		if len(matched) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		return matched, nil
	}

	rel, err := w.rel(arg)
	if err != nil {
		return nil, err
	}
	info, err := w.fs.Stat(filepath.Join(w.root, filepath.FromSlash(rel)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: no such file or directory", arg)
		}
		return nil, err
	}
	if info.IsDir() {
		list, err := candidates()
		if err != nil {
			return nil, err
		}
		var matched []string
		for _, c := range list {
			if rel == "." || strings.HasPrefix(c, rel+"/") {
				matched = append(matched, c)
			}
		}
		return matched, nil
	}
	return []string{rel}, nil
}

// rel converts a user-supplied path to a root-relative slash path.
func (w *Workspace) rel(p string) (string, error) {
	if filepath.IsAbs(p) {
		r, err := filepath.Rel(w.root, p)
		if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%s is outside the project root %s", p, w.root)
		}
		p = r
	}
	p = normalize(p)
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%s is outside the project root %s", p, w.root)
	}
	return p, nil
}

// Deselect removes paths, file numbers (1-based into the selection) or glob
// patterns from the selection.
func (w *Workspace) Deselect(args ...string) error {
	current := w.sel.Paths()
	var remove []string
	for _, arg := range args {
		if n, err := strconv.Atoi(arg); err == nil {
			if n < 1 || n > len(current) {
				return fmt.Errorf("selection number %d out of range (1-%d)", n, len(current))
			}
			remove = append(remove, current[n-1])
			continue
		}
		if strings.ContainsAny(arg, "*?[") {
			for _, c := range current {
				if gitctx.MatchesAny(c, []string{arg}) {
					remove = append(remove, c)
				}
			}
			continue
		}
		rel, err := w.rel(arg)
		if err != nil {
			return err
		}
		remove = append(remove, rel)
	}
	return w.sel.Remove(remove...)
}

// Files re-reads every selected file. Files that no longer exist are
// returned in missing and left out of files.
func (w *Workspace) Files() (files []File, missing []string, err error) {
	for _, p := range w.sel.Paths() {
		data, err := afero.ReadFile(w.fs, filepath.Join(w.root, filepath.FromSlash(p)))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				missing = append(missing, p)
				continue
			}
			return nil, nil, fmt.Errorf("reading %s: %w", p, err)
		}
		files = append(files, File{Path: p, Content: string(data)})
	}
	return files, missing, nil
}
