package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aidebug/aidebug/internal/cache"
	"github.com/aidebug/aidebug/internal/gitctx"
	"github.com/aidebug/aidebug/internal/providers"
	"github.com/aidebug/aidebug/internal/redact"
	"github.com/aidebug/aidebug/internal/workspace"
)

var (
	// ErrEmptyQuery is returned when debug or feature is asked without text.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrNoFiles is returned by debug when no selected file could be read.
	ErrNoFiles = errors.New("no files selected")
)

// Settings are the model parameters of an Engine.
type Settings struct {
	Provider    string
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// ClientFunc creates the provider client. It is called at most once, on the
// first cache miss, so cached answers never need an API key.
type ClientFunc func() (providers.Client, error)

// Engine answers requests over a workspace through the suggestion cache.
type Engine struct {
	ws       *workspace.Workspace
	resolver *cache.Resolver
	redactor *redact.Redactor
	repo     *gitctx.Repo
	settings Settings
	logger   *zap.Logger

	newClient  ClientFunc
	clientOnce sync.Once
	client     providers.Client
	clientErr  error
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRedactor scrubs file content before it is fingerprinted and sent.
func WithRedactor(r *redact.Redactor) EngineOption {
	return func(e *Engine) {
		e.redactor = r
	}
}

// WithRepo adds repository metadata to the prompt.
func WithRepo(repo *gitctx.Repo) EngineOption {
	return func(e *Engine) {
		e.repo = repo
	}
}

// WithSettings sets the provider and model parameters.
func WithSettings(s Settings) EngineOption {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithEngineLogger sets the engine logger.
func WithEngineLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an Engine.
func NewEngine(ws *workspace.Workspace, resolver *cache.Resolver, newClient ClientFunc, opts ...EngineOption) *Engine {
	e := &Engine{
		ws:        ws,
		resolver:  resolver,
		newClient: newClient,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Workspace returns the engine's workspace.
func (e *Engine) Workspace() *workspace.Workspace {
	return e.ws
}

// Settings returns the model parameters.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Prepared is a request with its files read, redacted and rendered, ready to
// be estimated and executed.
type Prepared struct {
	Request  Request
	Files    []workspace.File
	Missing  []string
	Redacted []string
	Repo     *gitctx.RepoMeta
	Messages []providers.Message
	Content  string
	Estimate Estimate
}

// Prepare re-reads the selected files from disk, redacts them and builds
// the prompt for req.
func (e *Engine) Prepare(req Request) (*Prepared, error) {
	if req.Mode == "" {
		req.Mode = ModeDebug
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" && req.Mode != ModeReadme {
		return nil, fmt.Errorf("%s: %w", req.Mode, ErrEmptyQuery)
	}

	files, missing, err := e.ws.Files()
	if err != nil {
		return nil, err
	}
	if req.Mode == ModeDebug && len(files) == 0 {
		return nil, ErrNoFiles
	}

	var redacted []string
	if e.redactor != nil {
		for i, f := range files {
			content, findings := e.redactor.Redact(f.Path, f.Content)
			files[i].Content = content
			for _, fd := range findings {
				redacted = append(redacted, fmt.Sprintf("%s:%d %s", fd.Path, fd.Line, fd.RuleID))
			}
		}
	}

	p := &Prepared{
		Request:  req,
		Files:    files,
		Missing:  missing,
		Redacted: redacted,
		Content:  workspace.Bundle(files),
	}
	if e.repo != nil {
		meta := e.repo.Meta()
		p.Repo = &meta
	}
	p.Messages = BuildMessages(req, PromptContext{Summary: e.ws.Profile().Summary(), Repo: p.Repo}, files)
	p.Estimate = EstimateCost(p.Messages, e.settings.Model, e.settings.MaxTokens)
	return p, nil
}

// Cached reports whether p would be answered from the cache.
func (e *Engine) Cached(p *Prepared) bool {
	_, ok := e.resolver.Peek(p.Request.Key(), p.Content)
	return ok
}

// Execute resolves p through the cache. On a miss the provider is called and
// response text is passed to onDelta as it arrives. When the answer was
// computed but could not be persisted, the report is returned together with
// the error.
func (e *Engine) Execute(ctx context.Context, p *Prepared, onDelta func(string)) (*Report, error) {
	start := time.Now()
	var llm time.Duration
	streamed := false

	compute := func(ctx context.Context) (string, error) {
		client, err := e.getClient()
		if err != nil {
			return "", err
		}
		req := providers.Request{
			Messages:    p.Messages,
			MaxTokens:   e.settings.MaxTokens,
			Temperature: e.settings.Temperature,
			TopP:        e.settings.TopP,
		}
		if onDelta != nil {
			req.OnDelta = func(s string) {
				streamed = true
				onDelta(s)
			}
		}
		llmStart := time.Now()
		resp, err := client.Complete(ctx, req)
		llm = time.Since(llmStart)
		if err != nil {
			return "", fmt.Errorf("provider %s: %w", client.Name(), err)
		}
		return resp.Content, nil
	}

	res, err := e.resolver.Resolve(ctx, p.Request.Key(), p.Content, compute)
	if err != nil && !errors.Is(err, cache.ErrPersist) {
		return nil, err
	}

	report := &Report{
		Tool:     "aidebug",
		Version:  "1.0",
		Mode:     p.Request.Mode,
		Query:    p.Request.Query,
		Key:      res.Key,
		Digest:   string(res.Digest),
		Cached:   res.Cached,
		Response: res.Response,
		Files:    paths(p.Files),
		Missing:  p.Missing,
		Redacted: p.Redacted,
		Provider: e.settings.Provider,
		Model:    e.settings.Model,
		Repo:     p.Repo,
		Estimate: p.Estimate,
		Timing: Timing{
			LLMMs:   llm.Milliseconds(),
			TotalMs: time.Since(start).Milliseconds(),
		},
		Streamed: streamed,
	}

	e.logger.Info("suggestion",
		zap.String("mode", string(report.Mode)),
		zap.Bool("cached", report.Cached),
		zap.Int("files", len(report.Files)),
		zap.Int("redacted", len(report.Redacted)),
		zap.Int64("llm_ms", report.Timing.LLMMs),
	)
	return report, err
}

// Run prepares and executes req.
func (e *Engine) Run(ctx context.Context, req Request, onDelta func(string)) (*Report, error) {
	start := time.Now()
	p, err := e.Prepare(req)
	if err != nil {
		return nil, err
	}
	prepare := time.Since(start)
	report, err := e.Execute(ctx, p, onDelta)
	if report != nil {
		report.Timing.PrepareMs = prepare.Milliseconds()
		report.Timing.TotalMs = time.Since(start).Milliseconds()
	}
	return report, err
}

func (e *Engine) getClient() (providers.Client, error) {
	e.clientOnce.Do(func() {
		if e.newClient == nil {
			e.clientErr = errors.New("no provider configured")
			return
		}
		e.client, e.clientErr = e.newClient()
	})
	return e.client, e.clientErr
}

func paths(files []workspace.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}
