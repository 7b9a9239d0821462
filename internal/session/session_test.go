package session

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidebug/aidebug/internal/config"
	"github.com/aidebug/aidebug/internal/providers"
	"github.com/aidebug/aidebug/internal/suggest"
)

type stubClient struct {
	calls int
	model string
}

func (c *stubClient) Name() string { return "stub" }

func (c *stubClient) Complete(_ context.Context, req providers.Request) (providers.Response, error) {
	c.calls++
	return providers.Response{Content: "answer from " + c.model}, nil
}

func newSession(t *testing.T, mutate func(*config.Config)) (*Session, afero.Fs, *stubClient) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/main.py", []byte("print(x)\n"), 0o644))
	cfg := config.Default()
	cfg.Cache.Dir = "/cache"
	if mutate != nil {
		mutate(&cfg)
	}
	client := &stubClient{}
	s, err := New(cfg, "/proj", Options{
		Fs: fs,
		NewClient: func(provider, model string) (providers.Client, error) {
			client.model = model
			return client, nil
		},
	})
	require.NoError(t, err)
	return s, fs, client
}

func TestSession_DebugUsesPersistentCache(t *testing.T) {
	s, fs, client := newSession(t, nil)
	assert.Nil(t, s.Repo)

	_, err := s.Workspace.Select("main.py")
	require.NoError(t, err)
	req := suggest.Request{Mode: suggest.ModeDebug, Query: "NameError: x undefined"}

	first, err := s.Engine.Run(context.Background(), req, nil)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "answer from gpt-4o-mini", first.Response)

	second, err := s.Engine.Run(context.Background(), req, nil)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, client.calls)

	exists, err := afero.Exists(fs, "/cache/cache.json")
	require.NoError(t, err)
	assert.True(t, exists)

	rep, err := s.CacheReport()
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Store.Entries)
	assert.Equal(t, float64(1), rep.Session.Hits)
	assert.Equal(t, float64(1), rep.Session.Misses)
	assert.Equal(t, "/cache/cache.json", rep.Store.Path)

	removed, err := s.ClearCache()
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.ClearCache()
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSession_ApplyKeepsSelection(t *testing.T) {
	s, _, client := newSession(t, nil)
	_, err := s.Workspace.Select("main.py")
	require.NoError(t, err)

	cfg := s.Config
	cfg.Model = "gpt-4"
	require.NoError(t, s.Apply(cfg))
	assert.Equal(t, []string{"main.py"}, s.Workspace.Selection().Paths())

	rep, err := s.Engine.Run(context.Background(), suggest.Request{Query: "boom"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", rep.Model)
	assert.Equal(t, "gpt-4", client.model)

	bad := s.Config
	bad.Format = "sarif"
	assert.Error(t, s.Apply(bad))
	assert.Equal(t, "gpt-4", s.Config.Model)
}

func TestSession_DisabledCacheStaysInMemory(t *testing.T) {
	s, fs, client := newSession(t, func(c *config.Config) { c.Cache.Enabled = false })
	_, err := s.Workspace.Select("main.py")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := s.Engine.Run(context.Background(), suggest.Request{Query: "q"}, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, client.calls)
	exists, _ := afero.Exists(fs, "/cache/cache.json")
	assert.False(t, exists)
}

func TestSession_SaveProject(t *testing.T) {
	s, fs, _ := newSession(t, nil)
	_, err := s.Workspace.Select("main.py")
	require.NoError(t, err)
	require.NoError(t, s.SaveProject())

	data, err := afero.ReadFile(fs, "/proj/.aidebug.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "main.py")
}
