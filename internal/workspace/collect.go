package workspace

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"
)

// Options controls which files Collect returns.
type Options struct {
	// MaxFileBytes skips larger files. Zero means 1 MB.
	MaxFileBytes int64
	// Extensions, when non-empty, limits collection to these extensions
	// (with leading dot, lower case).
	Extensions []string
	// IgnoreDirs are directory names skipped at any depth.
	IgnoreDirs []string
}

// DefaultExtensions are the source file types scraped by default.
var DefaultExtensions = []string{
	".py", ".md", ".html", ".css", ".scss", ".java", ".xml", ".c", ".cpp", ".h",
	".lock", ".toml", ".rs", ".json", ".go", ".js", ".jsx", ".ts", ".tsx",
	".rb", ".php", ".sh", ".yaml", ".yml", ".sql", ".txt", ".cfg", ".ini",
}

// DefaultIgnoreDirs are skipped in addition to hidden directories.
var DefaultIgnoreDirs = []string{
	"env", "venv", "__pycache__", "node_modules", "vendor", "target", "build", "dist",
}

// DefaultOptions returns the collection defaults.
func DefaultOptions() Options {
	return Options{
		MaxFileBytes: 1 << 20,
		Extensions:   DefaultExtensions,
		IgnoreDirs:   DefaultIgnoreDirs,
	}
}

func (o Options) maxBytes() int64 {
	if o.MaxFileBytes <= 0 {
		return 1 << 20
	}
	return o.MaxFileBytes
}

var binaryExts = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true, ".webp": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".zip": true, ".tar": true, ".gz": true, ".rar": true, ".7z": true,
	".bin": true, ".dat": true, ".db": true, ".sqlite": true,
	".pyc": true, ".pyo": true, ".class": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".mp3": true, ".mp4": true, ".wav": true, ".avi": true, ".mov": true,
	".o": true, ".a": true, ".lib": true,
}

func isBinaryExtension(name string) bool {
	return binaryExts[strings.ToLower(filepath.Ext(name))]
}

// IsBinary reports whether content starts with the magic bytes of a known
// binary format.
func IsBinary(content []byte) bool {
	head := content
	if len(head) > 262 {
		head = head[:262]
	}
	kind, _ := filetype.Match(head)
	return kind != filetype.Unknown
}

func loadGitignore(fsys afero.Fs, root string) *ignore.GitIgnore {
	data, err := afero.ReadFile(fsys, filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
}

// Collect walks root and returns the candidate files as slash-separated
// paths relative to root, sorted.
func Collect(fsys afero.Fs, root string, opts Options) ([]string, error) {
	gitignore := loadGitignore(fsys, root)
	skipDirs := make(map[string]bool, len(opts.IgnoreDirs))
	for _, d := range opts.IgnoreDirs {
		skipDirs[d] = true
	}
	exts := make(map[string]bool, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts[strings.ToLower(e)] = true
	}

	var files []string
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		name := info.Name()

		if info.IsDir() {
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			if gitignore != nil && gitignore.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || isBinaryExtension(name) {
			return nil
		}
		if len(exts) > 0 && !exts[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		if gitignore != nil && gitignore.MatchesPath(rel) {
			return nil
		}
		if info.Size() > opts.maxBytes() {
			return nil
		}
		if binary, err := sniffBinary(fsys, path); err != nil || binary {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func sniffBinary(fsys afero.Fs, path string) (bool, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return IsBinary(head[:n]), nil
}
