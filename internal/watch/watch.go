// Package watch re-runs a callback when selected project files change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is used when a non-positive debounce is given.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc receives the sorted relative paths that changed during one
// debounce window. Calls never overlap.
type ChangeFunc func(ctx context.Context, changed []string)

// Options configures Run.
type Options struct {
	Root     string
	Paths    []string
	Debounce time.Duration
	Logger   *zap.Logger
}

// Run watches the directories holding opts.Paths and calls onChange after
// writes to those files settle. It blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options, onChange ChangeFunc) error {
	if len(opts.Paths) == 0 {
		return fmt.Errorf("no files to watch")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	tracked := make(map[string]string, len(opts.Paths))
	dirs := map[string]bool{}
	for _, p := range opts.Paths {
		abs := filepath.Join(opts.Root, filepath.FromSlash(p))
		tracked[abs] = p
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}
	logger.Info("watching files", zap.Int("files", len(tracked)), zap.Int("dirs", len(dirs)))

	changes := make(chan string)
	go func() {
		defer close(changes)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				rel, ok := tracked[filepath.Clean(event.Name)]
				if !ok || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				logger.Debug("file event", zap.String("path", rel), zap.String("op", event.Op.String()))
				select {
				case changes <- rel:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", zap.Error(err))
			case <-ctx.Done():
				return
			}
		}
	}()

	Coalesce(ctx, changes, opts.Debounce, onChange)
	return nil
}

// Coalesce groups paths received on changes until none arrive for debounce,
// then calls onChange with the distinct paths. It returns when ctx is done
// or changes is closed; pending paths are flushed on close but not on
// cancellation.
func Coalesce(ctx context.Context, changes <-chan string, debounce time.Duration, onChange ChangeFunc) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	pending := map[string]bool{}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	flush := func() {
		if len(pending) == 0 {
			return
		}
		changed := make([]string, 0, len(pending))
		for p := range pending {
			changed = append(changed, p)
		}
		sort.Strings(changed)
		pending = map[string]bool{}
		onChange(ctx, changed)
	}

	for {
		select {
		case p, ok := <-changes:
			if !ok {
				timer.Stop()
				flush()
				return
			}
			pending[p] = true
			timer.Reset(debounce)
		case <-timer.C:
			flush()
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}
