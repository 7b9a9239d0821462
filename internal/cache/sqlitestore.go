package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
	key        TEXT PRIMARY KEY,
	digest     TEXT NOT NULL,
	response   TEXT NOT NULL,
	created_at TEXT NOT NULL,
	model      TEXT NOT NULL DEFAULT ''
)`

// SQLiteStore keeps the snapshot in a single-table SQLite database. The
// database is opened for each operation so no handle outlives a command.
type SQLiteStore struct {
	path   string
	logger *zap.Logger
}

// NewSQLiteStore returns a SQLiteStore backed by the database file at path.
func NewSQLiteStore(path string, opts ...StoreOption) *SQLiteStore {
	c := newStoreConfig(opts)
	return &SQLiteStore{path: path, logger: c.logger}
}

func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func (s *SQLiteStore) Load() Snapshot {
	if _, err := os.Stat(s.path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("cache database unreadable, starting empty",
				zap.String("path", s.path), zap.Error(err))
		}
		return Snapshot{}
	}
	snap, err := s.load()
	if err != nil {
		s.logger.Warn("cache database corrupt, starting empty",
			zap.String("path", s.path), zap.Error(err))
		return Snapshot{}
	}
	return snap
}

func (s *SQLiteStore) load() (Snapshot, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT key, digest, response, created_at, model FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	snap := Snapshot{}
	for rows.Next() {
		var (
			key, digest, response, created, model string
		)
		if err := rows.Scan(&key, &digest, &response, &created, &model); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		createdAt, _ := time.Parse(time.RFC3339Nano, created)
		snap[key] = Entry{
			Digest:    Digest(digest),
			Response:  response,
			CreatedAt: createdAt,
			Model:     model,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}
	return snap, nil
}

func (s *SQLiteStore) Save(snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: creating cache directory: %w", ErrPersist, err)
	}
	err := s.save(snap)
	if err == nil {
		return nil
	}
	// A file that is not a usable database is replaced, matching Load's
	// treatment of it as empty.
	s.logger.Warn("recreating cache database", zap.String("path", s.path), zap.Error(err))
	if _, rmErr := s.removeFiles(); rmErr != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := s.save(snap); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (s *SQLiteStore) save(snap Snapshot) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing entries: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO entries (key, digest, response, created_at, model) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for _, key := range snap.Keys() {
		e := snap[key]
		if _, err := stmt.Exec(key, string(e.Digest), e.Response, e.CreatedAt.UTC().Format(time.RFC3339Nano), e.Model); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing entries: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear() (bool, error) {
	removed, err := s.removeFiles()
	if err != nil {
		return false, fmt.Errorf("removing cache database: %w", err)
	}
	return removed, nil
}

// removeFiles deletes the database and its journal files. It reports
// whether the main database file existed.
func (s *SQLiteStore) removeFiles() (bool, error) {
	removed := false
	for _, p := range []string{s.path, s.path + "-journal", s.path + "-wal", s.path + "-shm"} {
		err := os.Remove(p)
		switch {
		case err == nil:
			if p == s.path {
				removed = true
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return removed, err
		}
	}
	return removed, nil
}

// SizeBytes is the size of the database file, or 0 if it does not exist.
func (s *SQLiteStore) SizeBytes() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.Size()
}
