// Package session wires configuration, the suggestion cache, the workspace
// and the provider into one object shared by the CLI and the interactive
// shell.
package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/aidebug/aidebug/internal/cache"
	"github.com/aidebug/aidebug/internal/config"
	"github.com/aidebug/aidebug/internal/gitctx"
	"github.com/aidebug/aidebug/internal/metrics"
	"github.com/aidebug/aidebug/internal/providers"
	"github.com/aidebug/aidebug/internal/redact"
	"github.com/aidebug/aidebug/internal/suggest"
	"github.com/aidebug/aidebug/internal/workspace"
)

// ClientFactory creates a provider client.
type ClientFactory func(provider, model string) (providers.Client, error)

// Options are the injectable dependencies of a Session.
type Options struct {
	// Fs backs the workspace and the file cache. Defaults to the OS.
	Fs        afero.Fs
	Logger    *zap.Logger
	NewClient ClientFactory
}

// Session is one project opened with one configuration.
type Session struct {
	Config    config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Resolver  *cache.Resolver
	Workspace *workspace.Workspace
	// Repo is nil when the project is not in a git work tree.
	Repo   *gitctx.Repo
	Engine *suggest.Engine

	fs        afero.Fs
	newClient ClientFactory
	redactor  *redact.Redactor
}

// New opens the project at root.
func New(cfg config.Config, root string, opts Options) (*Session, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewClient == nil {
		opts.NewClient = providers.New
	}

	ws, err := workspace.Open(opts.Fs, root, workspaceOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening project: %w", err)
	}

	s := &Session{
		Config:    cfg,
		Logger:    opts.Logger,
		Metrics:   metrics.New(),
		Workspace: ws,
		fs:        opts.Fs,
		newClient: opts.NewClient,
	}

	repo, err := gitctx.Open(ws.Root())
	switch {
	case err == nil:
		s.Repo = repo
	case errors.Is(err, gitctx.ErrNotRepository):
		s.Logger.Debug("project is not a git repository", zap.String("root", ws.Root()))
	default:
		s.Logger.Warn("opening git repository", zap.Error(err))
	}

	if err := s.Apply(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func workspaceOptions(cfg config.Config) workspace.Options {
	return workspace.Options{
		MaxFileBytes: cfg.Project.MaxFileBytes,
		Extensions:   cfg.Project.Extensions,
		IgnoreDirs:   cfg.Project.IgnoreDirs,
	}
}

// Apply rebuilds the cache, redactor and engine for cfg. The workspace and
// its selection are kept.
func (s *Session) Apply(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	keying, err := cache.ParseKeying(cfg.Cache.Keying)
	if err != nil {
		return err
	}

	store, err := s.openStore(cfg)
	if err != nil {
		return err
	}

	var redactor *redact.Redactor
	if cfg.Privacy.RedactSecrets {
		redactor, err = redact.NewRedactor(cfg.Privacy.RedactPaths, cfg.Privacy.RulesPath)
		if err != nil {
			return fmt.Errorf("loading redaction rules: %w", err)
		}
	}

	s.Config = cfg
	s.redactor = redactor
	s.Resolver = cache.NewResolver(store,
		cache.WithKeying(keying),
		cache.WithModel(cfg.Provider+"/"+cfg.Model),
		cache.WithLogger(s.Logger.Named("cache")),
		cache.WithRecorder(s.Metrics),
	)

	opts := []suggest.EngineOption{
		suggest.WithSettings(suggest.Settings{
			Provider:    cfg.Provider,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			MaxTokens:   cfg.MaxOutputTokens,
		}),
		suggest.WithEngineLogger(s.Logger.Named("suggest")),
	}
	if redactor != nil {
		opts = append(opts, suggest.WithRedactor(redactor))
	}
	if s.Repo != nil {
		opts = append(opts, suggest.WithRepo(s.Repo))
	}
	provider, model, newClient := cfg.Provider, cfg.Model, s.newClient
	s.Engine = suggest.NewEngine(s.Workspace, s.Resolver, func() (providers.Client, error) {
		return newClient(provider, model)
	}, opts...)
	return nil
}

// openStore returns the configured store. A disabled cache is kept in
// memory for the life of the session.
func (s *Session) openStore(cfg config.Config) (cache.Store, error) {
	storeOpts := []cache.StoreOption{cache.WithStoreLogger(s.Logger.Named("cache"))}
	if !cfg.Cache.Enabled {
		storeOpts = append(storeOpts, cache.WithFs(afero.NewMemMapFs()))
		return cache.NewFileStore(filepath.Join(cache.DefaultDir(), "cache.json"), storeOpts...), nil
	}
	storeOpts = append(storeOpts, cache.WithFs(s.fs))
	return cache.Open(cfg.Cache.Backend, cfg.Cache.Dir, storeOpts...)
}

// CacheReport is the output of cache show.
type CacheReport struct {
	Enabled bool             `json:"enabled"`
	Backend string           `json:"backend"`
	Keying  string           `json:"keying"`
	Store   cache.Stats      `json:"store"`
	Session metrics.Snapshot `json:"session"`
}

// CacheReport describes the store and this session's cache counters.
func (s *Session) CacheReport() (CacheReport, error) {
	snap, err := s.Metrics.Snapshot()
	if err != nil {
		return CacheReport{}, fmt.Errorf("gathering metrics: %w", err)
	}
	return CacheReport{
		Enabled: s.Config.Cache.Enabled,
		Backend: s.Config.Cache.Backend,
		Keying:  s.Config.Cache.Keying,
		Store:   cache.Describe(s.Resolver.Store()),
		Session: snap,
	}, nil
}

// ClearCache removes the backing store.
func (s *Session) ClearCache() (bool, error) {
	return s.Resolver.Clear()
}

// SaveProject persists the project profile and selection.
func (s *Session) SaveProject() error {
	if err := s.Workspace.Save(); err != nil {
		return err
	}
	s.Logger.Debug("project saved", zap.Int("files", s.Workspace.Selection().Len()))
	return nil
}

// DebounceInterval is the configured watch debounce.
func (s *Session) DebounceInterval() time.Duration {
	return time.Duration(s.Config.Watch.DebounceMillis) * time.Millisecond
}
