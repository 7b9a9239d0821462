package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
	ch    chan struct{}
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan struct{}, 16)}
}

func (r *recorder) fn(_ context.Context, changed []string) {
	r.mu.Lock()
	r.calls = append(r.calls, changed)
	r.mu.Unlock()
	r.ch <- struct{}{}
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

func TestCoalesce_GroupsBurst(t *testing.T) {
	changes := make(chan string)
	rec := newRecorder()
	done := make(chan struct{})
	go func() {
		Coalesce(context.Background(), changes, 50*time.Millisecond, rec.fn)
		close(done)
	}()

	changes <- "main.py"
	changes <- "util.py"
	changes <- "main.py"

	select {
	case <-rec.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("onChange not called")
	}
	close(changes)
	<-done

	assert.Equal(t, [][]string{{"main.py", "util.py"}}, rec.snapshot())
}

func TestCoalesce_SeparateWindows(t *testing.T) {
	changes := make(chan string)
	rec := newRecorder()
	defer close(changes)
	go Coalesce(context.Background(), changes, 20*time.Millisecond, rec.fn)

	changes <- "a.py"
	<-rec.ch
	changes <- "b.py"
	<-rec.ch

	assert.Equal(t, [][]string{{"a.py"}, {"b.py"}}, rec.snapshot())
}

func TestCoalesce_FlushOnClose(t *testing.T) {
	changes := make(chan string, 1)
	rec := newRecorder()
	changes <- "a.py"
	close(changes)

	Coalesce(context.Background(), changes, time.Hour, rec.fn)
	assert.Equal(t, [][]string{{"a.py"}}, rec.snapshot())
}

func TestCoalesce_CancelDropsPending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan string)
	rec := newRecorder()
	done := make(chan struct{})
	go func() {
		Coalesce(ctx, changes, time.Hour, rec.fn)
		close(done)
	}()
	changes <- "a.py"
	cancel()
	<-done
	assert.Empty(t, rec.snapshot())
}

func TestRun_NoPaths(t *testing.T) {
	err := Run(context.Background(), Options{Root: t.TempDir()}, func(context.Context, []string) {})
	assert.Error(t, err)
}

func TestRun_DetectsWrites(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o755))
	main := filepath.Join(root, "main.py")
	other := filepath.Join(root, "other.py")
	require.NoError(t, os.WriteFile(main, []byte("print(x)\n"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("pass\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := newRecorder()
	errc := make(chan error, 1)
	go func() {
		errc <- Run(ctx, Options{Root: root, Paths: []string{"main.py"}, Debounce: 50 * time.Millisecond}, rec.fn)
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(other, []byte("pass\npass\n"), 0o644))
	require.NoError(t, os.WriteFile(main, []byte("x = 1\nprint(x)\n"), 0o644))

	select {
	case <-rec.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	cancel()
	require.NoError(t, <-errc)

	for _, call := range rec.snapshot() {
		assert.Equal(t, []string{"main.py"}, call)
	}
}
