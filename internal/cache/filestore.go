package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const fileFormatVersion = 1

type fileEnvelope struct {
	Version int      `json:"version"`
	Entries Snapshot `json:"entries"`
}

type storeConfig struct {
	fs     afero.Fs
	logger *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*storeConfig)

// WithFs sets the filesystem used by FileStore. SQLiteStore always uses the
// OS filesystem and ignores it.
func WithFs(fsys afero.Fs) StoreOption {
	return func(c *storeConfig) {
		c.fs = fsys
	}
}

// WithStoreLogger sets the logger that receives corruption warnings.
func WithStoreLogger(logger *zap.Logger) StoreOption {
	return func(c *storeConfig) {
		c.logger = logger
	}
}

func newStoreConfig(opts []StoreOption) storeConfig {
	c := storeConfig{fs: afero.NewOsFs(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// FileStore keeps the snapshot in one JSON file.
type FileStore struct {
	fs     afero.Fs
	path   string
	logger *zap.Logger
}

// NewFileStore returns a FileStore backed by path.
func NewFileStore(path string, opts ...StoreOption) *FileStore {
	c := newStoreConfig(opts)
	return &FileStore{fs: c.fs, path: path, logger: c.logger}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() Snapshot {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("cache file unreadable, starting empty",
				zap.String("path", s.path), zap.Error(err))
		}
		return Snapshot{}
	}
	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Warn("cache file corrupt, starting empty",
			zap.String("path", s.path), zap.Error(err))
		return Snapshot{}
	}
	if env.Version != fileFormatVersion {
		s.logger.Warn("cache file has unsupported version, starting empty",
			zap.String("path", s.path), zap.Int("version", env.Version))
		return Snapshot{}
	}
	if env.Entries == nil {
		return Snapshot{}
	}
	return env.Entries
}

func (s *FileStore) Save(snap Snapshot) error {
	if snap == nil {
		snap = Snapshot{}
	}
	data, err := json.Marshal(fileEnvelope{Version: fileFormatVersion, Entries: snap})
	if err != nil {
		return fmt.Errorf("%w: marshaling snapshot: %w", ErrPersist, err)
	}
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating cache directory: %w", ErrPersist, err)
	}
	tmp, err := afero.TempFile(s.fs, dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %w", ErrPersist, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("%w: writing temp file: %w", ErrPersist, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("%w: syncing temp file: %w", ErrPersist, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("%w: closing temp file: %w", ErrPersist, err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("%w: replacing cache file: %w", ErrPersist, err)
	}
	return nil
}

func (s *FileStore) Clear() (bool, error) {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return false, fmt.Errorf("checking cache file: %w", err)
	}
	if !exists {
		return false, nil
	}
	if err := s.fs.Remove(s.path); err != nil {
		return false, fmt.Errorf("removing cache file: %w", err)
	}
	return true, nil
}

// SizeBytes is the size of the backing file, or 0 if it does not exist.
func (s *FileStore) SizeBytes() int64 {
	info, err := s.fs.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.Size()
}
