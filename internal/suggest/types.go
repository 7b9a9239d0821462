package suggest

import (
	"fmt"
	"strings"

	"github.com/aidebug/aidebug/internal/gitctx"
)

// Mode selects the prompt template and the cache key namespace.
type Mode string

const (
	ModeDebug   Mode = "debug"
	ModeFeature Mode = "feature"
	ModeReadme  Mode = "readme"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeDebug, ModeFeature, ModeReadme:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (valid: debug, feature, readme)", s)
	}
}

// Request is one suggestion request.
type Request struct {
	Mode  Mode
	Query string
}

// Key is the cache key for the request. Debug keys are the verbatim error
// text; the other modes are prefixed so they never share a slot with debug.
func (r Request) Key() string {
	if r.Mode == ModeDebug || r.Mode == "" {
		return r.Query
	}
	return string(r.Mode) + ": " + r.Query
}

// Report is the outcome of one Run.
type Report struct {
	Tool     string           `json:"tool"`
	Version  string           `json:"version"`
	Mode     Mode             `json:"mode"`
	Query    string           `json:"query"`
	Key      string           `json:"key"`
	Digest   string           `json:"digest"`
	Cached   bool             `json:"cached"`
	Response string           `json:"response"`
	Files    []string         `json:"files"`
	Missing  []string         `json:"missing,omitempty"`
	Redacted []string         `json:"redacted,omitempty"`
	Provider string           `json:"provider"`
	Model    string           `json:"model"`
	Repo     *gitctx.RepoMeta `json:"repo,omitempty"`
	Estimate Estimate         `json:"estimate"`
	Timing   Timing           `json:"timing"`
	// Streamed is set when the response was already written to the delta
	// sink while it was generated.
	Streamed bool `json:"-"`
}

// Timing contains performance metrics.
type Timing struct {
	PrepareMs int64 `json:"prepareMs"`
	LLMMs     int64 `json:"llmMs"`
	TotalMs   int64 `json:"totalMs"`
}
