package workspace

import (
	"sort"
	"strings"
)

// Bundle renders files as the canonical content string: sorted by path, each
// as a "--- <path>" header line followed by the content and a newline. Paths
// are part of the result, so renaming a file changes its fingerprint.
func Bundle(files []File) string {
	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var b strings.Builder
	for _, f := range sorted {
		b.WriteString("--- ")
		b.WriteString(f.Path)
		b.WriteByte('\n')
		b.WriteString(f.Content)
		b.WriteByte('\n')
	}
	return b.String()
}
