package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ComputeFunc produces a fresh response when the cache cannot answer.
type ComputeFunc func(ctx context.Context) (string, error)

// Keying selects how a query and its content digest map to a cache slot.
type Keying string

const (
	// KeyByQuery keeps one slot per query text. A content change replaces
	// the previous response.
	KeyByQuery Keying = "query"
	// KeyBySnapshot keeps one slot per (query, digest) pair so responses
	// for earlier file states stay available.
	KeyBySnapshot Keying = "snapshot"
)

// ParseKeying validates a keying name. An empty name selects KeyByQuery.
func ParseKeying(s string) (Keying, error) {
	switch Keying(s) {
	case "", KeyByQuery:
		return KeyByQuery, nil
	case KeyBySnapshot:
		return KeyBySnapshot, nil
	default:
		return "", fmt.Errorf("unknown cache keying %q (supported: query, snapshot)", s)
	}
}

// Recorder receives resolver events. metrics.Metrics implements it.
type Recorder interface {
	Hit()
	Miss(stale bool)
	PersistError()
	ObserveCompute(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) Hit()                         {}
func (nopRecorder) Miss(bool)                    {}
func (nopRecorder) PersistError()                {}
func (nopRecorder) ObserveCompute(time.Duration) {}

// Result is the outcome of Resolve.
type Result struct {
	Key      string
	Digest   Digest
	Response string
	Cached   bool
}

// Resolver answers queries from a Store, computing and persisting on a miss.
type Resolver struct {
	store    Store
	hashFunc HashFunc
	keying   Keying
	model    string
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHashFunc replaces the xxHash64 fingerprint.
func WithHashFunc(h HashFunc) Option {
	return func(r *Resolver) {
		r.hashFunc = h
	}
}

// WithKeying sets the slot keying mode.
func WithKeying(k Keying) Option {
	return func(r *Resolver) {
		r.keying = k
	}
}

// WithModel records the model name on new entries.
func WithModel(model string) Option {
	return func(r *Resolver) {
		r.model = model
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithRecorder sets the event recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Resolver) {
		r.recorder = rec
	}
}

// WithNowFunc overrides the clock used for entry timestamps.
func WithNowFunc(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a Resolver over store.
func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		keying:   KeyByQuery,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the underlying store.
func (r *Resolver) Store() Store {
	return r.store
}

// Fingerprint digests content with the resolver's hash.
func (r *Resolver) Fingerprint(content string) Digest {
	return FingerprintWith(r.hashFunc, content)
}

func (r *Resolver) slot(key string, digest Digest) string {
	if r.keying == KeyBySnapshot {
		return key + "\x00" + string(digest)
	}
	return key
}

// Resolve returns the stored response for key when it was computed from
// content with the same digest. Otherwise compute runs and its response is
// stored under key and persisted. A compute error is returned unchanged and
// nothing is written. A persist error is returned together with the computed
// response.
func (r *Resolver) Resolve(ctx context.Context, key, content string, compute ComputeFunc) (Result, error) {
	if compute == nil {
		return Result{}, errors.New("resolve: nil compute func")
	}
	digest := r.Fingerprint(content)
	slot := r.slot(key, digest)
	log := r.logger.With(zap.String("digest", string(digest)), zap.Int("key_len", len(key)))

	snap := r.store.Load()
	if snap == nil {
		snap = Snapshot{}
	}
	entry, found := snap[slot]
	if found && entry.Digest == digest {
		r.recorder.Hit()
		log.Info("suggestion_cache", zap.String("cache_result", "hit"))
		return Result{Key: key, Digest: digest, Response: entry.Response, Cached: true}, nil
	}

	r.recorder.Miss(found)
	result := "miss"
	if found {
		result = "stale"
	}
	log.Info("suggestion_cache", zap.String("cache_result", result))

	start := time.Now()
	response, err := compute(ctx)
	r.recorder.ObserveCompute(time.Since(start))
	if err != nil {
		log.Warn("suggestion compute failed", zap.Error(err))
		return Result{}, err
	}

	snap[slot] = Entry{
		Digest:    digest,
		Response:  response,
		CreatedAt: r.now(),
		Model:     r.model,
	}
	res := Result{Key: key, Digest: digest, Response: response}
	if err := r.store.Save(snap); err != nil {
		r.recorder.PersistError()
		log.Error("suggestion cache save failed", zap.String("path", r.store.Path()), zap.Error(err))
		return res, err
	}
	return res, nil
}

// Peek reports whether Resolve would answer key and content from the store,
// without computing or recording anything.
func (r *Resolver) Peek(key, content string) (Result, bool) {
	digest := r.Fingerprint(content)
	entry, ok := r.store.Load()[r.slot(key, digest)]
	if !ok || entry.Digest != digest {
		return Result{Key: key, Digest: digest}, false
	}
	return Result{Key: key, Digest: digest, Response: entry.Response, Cached: true}, true
}

// Clear deletes the backing store and reports whether anything was removed.
func (r *Resolver) Clear() (bool, error) {
	return r.store.Clear()
}
