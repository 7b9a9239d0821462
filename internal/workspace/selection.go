package workspace

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
)

// ErrNotSelected is returned when deselecting a path that is not selected.
var ErrNotSelected = errors.New("file not selected")

// Selection is an ordered, de-duplicated set of project-relative paths.
type Selection struct {
	paths []string
	index map[string]bool
}

// NewSelection creates a selection holding paths.
func NewSelection(paths ...string) *Selection {
	s := &Selection{index: map[string]bool{}}
	s.Add(paths...)
	return s
}

func normalize(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

// Add appends paths not already selected and returns the ones added.
func (s *Selection) Add(paths ...string) []string {
	var added []string
	for _, p := range paths {
		p = normalize(p)
		if s.index[p] {
			continue
		}
		s.index[p] = true
		s.paths = append(s.paths, p)
		added = append(added, p)
	}
	return added
}

// Remove drops paths. Unknown paths are reported with ErrNotSelected after
// the known ones have been removed.
func (s *Selection) Remove(paths ...string) error {
	var missing []error
	for _, p := range paths {
		p = normalize(p)
		if !s.index[p] {
			missing = append(missing, fmt.Errorf("%s: %w", p, ErrNotSelected))
			continue
		}
		delete(s.index, p)
		for i, q := range s.paths {
			if q == p {
				s.paths = append(s.paths[:i], s.paths[i+1:]...)
				break
			}
		}
	}
	return errors.Join(missing...)
}

// Clear removes every path.
func (s *Selection) Clear() {
	s.paths = nil
	s.index = map[string]bool{}
}

// Contains reports whether p is selected.
func (s *Selection) Contains(p string) bool {
	return s.index[normalize(p)]
}

// Paths returns a copy of the selected paths in selection order.
func (s *Selection) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Len is the number of selected paths.
func (s *Selection) Len() int {
	return len(s.paths)
}
