package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrPersist wraps every failure to write the backing file.
var ErrPersist = errors.New("persisting cache")

// Entry is the stored response for one query key.
type Entry struct {
	Digest    Digest    `json:"digest"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
	Model     string    `json:"model,omitempty"`
}

// Snapshot is the whole cache as loaded from, or saved to, a Store.
type Snapshot map[string]Entry

// Keys returns the snapshot keys in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store persists a Snapshot at one well-known location.
type Store interface {
	// Load never fails: a missing or corrupt backing file yields an empty snapshot.
	Load() Snapshot
	// Save fully replaces the backing file with s.
	Save(s Snapshot) error
	// Clear deletes the backing file and reports whether one existed.
	Clear() (bool, error)
	Path() string
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the Store for backend, rooted at dir. An empty dir selects
// DefaultDir.
func Open(backend, dir string, opts ...StoreOption) (Store, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	switch backend {
	case "", BackendFile:
		return NewFileStore(filepath.Join(dir, "cache.json"), opts...), nil
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, "cache.db"), opts...), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (supported: file, sqlite)", backend)
	}
}

// DefaultDir is the cache directory under the system temp dir.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "aidebug")
}

// Stats describes the current state of a Store.
type Stats struct {
	Path      string    `json:"path"`
	Entries   int       `json:"entries"`
	SizeBytes int64     `json:"sizeBytes"`
	Newest    time.Time `json:"newest,omitzero"`
	Keys      []string  `json:"keys,omitempty"`
}

// Describe loads s and summarises it.
func Describe(s Store) Stats {
	snap := s.Load()
	stats := Stats{Path: s.Path(), Entries: len(snap), Keys: snap.Keys()}
	for _, e := range snap {
		if e.CreatedAt.After(stats.Newest) {
			stats.Newest = e.CreatedAt
		}
	}
	if sz, ok := s.(interface{ SizeBytes() int64 }); ok {
		stats.SizeBytes = sz.SizeBytes()
	}
	return stats
}
