package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

// rewriteTransport sends every request to a local httptest server.
type rewriteTransport struct {
	base    http.RoundTripper
	baseURL string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = "http"
	req.URL.Host = t.baseURL[len("http://"):]
	if t.base != nil {
		return t.base.RoundTrip(req)
	}
	return http.DefaultTransport.RoundTrip(req)
}

func fastRetry(t *testing.T) {
	t.Helper()
	old := retryBaseDelay
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = old })
}

func testMessages() []Message {
	return []Message{
		{Role: "system", Content: "You are a AI coding assistant."},
		{Role: "user", Content: "File: main.py Content: print(x)"},
		{Role: "user", Content: "NameError: x undefined"},
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New("bogus", "m"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNew_MissingKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	for _, p := range []string{"openai", "anthropic", "gemini", "google"} {
		_, err := New(p, "m")
		if !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("New(%q) error = %v, want ErrNoAPIKey", p, err)
		}
	}
}

func TestNew_Names(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("ANTHROPIC_API_KEY", "k")
	t.Setenv("GEMINI_API_KEY", "k")
	tests := map[string]string{
		"openai":    "openai",
		"anthropic": "anthropic",
		"gemini":    "gemini",
		"google":    "gemini",
		"ollama":    "ollama",
		"lmstudio":  "ollama",
	}
	for in, want := range tests {
		c, err := New(in, "m")
		if err != nil {
			t.Fatalf("New(%q) error: %v", in, err)
		}
		if c.Name() != want {
			t.Errorf("New(%q).Name() = %q, want %q", in, c.Name(), want)
		}
	}
}

func TestNewOpenAI_HostOverride(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("OPENAI_API_HOST", "https://proxy.example.com/v1/")
	o, err := NewOpenAI("gpt-4")
	if err != nil {
		t.Fatal(err)
	}
	if o.baseURL != "https://proxy.example.com/v1/chat/completions" {
		t.Errorf("baseURL = %s", o.baseURL)
	}
}

func TestRequestTimeout(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "7")
	if got := requestTimeout(time.Minute); got != 7*time.Second {
		t.Errorf("requestTimeout = %v, want 7s", got)
	}
	t.Setenv("REQUEST_TIMEOUT", "nope")
	if got := requestTimeout(time.Minute); got != time.Minute {
		t.Errorf("requestTimeout = %v, want fallback", got)
	}
}

func TestChatCompletionsURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"http://localhost:11434", "http://localhost:11434/v1/chat/completions"},
		{"http://localhost:11434/", "http://localhost:11434/v1/chat/completions"},
		{"http://localhost:1234/v1", "http://localhost:1234/v1/chat/completions"},
		{"http://host/v1/chat/completions", "http://host/v1/chat/completions"},
	}
	for _, tt := range tests {
		if got := chatCompletionsURL(tt.in); got != tt.want {
			t.Errorf("chatCompletionsURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitSystem(t *testing.T) {
	system, turns := splitSystem(testMessages())
	if system != "You are a AI coding assistant." {
		t.Errorf("system = %q", system)
	}
	if len(turns) != 1 || turns[0].Role != "user" {
		t.Fatalf("turns = %+v, want one merged user turn", turns)
	}
	want := "File: main.py Content: print(x)\n\nNameError: x undefined"
	if turns[0].Content != want {
		t.Errorf("merged content = %q, want %q", turns[0].Content, want)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	fastRetry(t)
	tests := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{"rate limit retried", &rateLimitError{}, 4},
		{"server error retried", &serverError{statusCode: 502}, 4},
		{"auth not retried", &authError{message: "bad key"}, 1},
		{"client error not retried", &apiError{statusCode: 400}, 1},
		{"plain error not retried", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retryWithBackoff(context.Background(), 3, func() error {
				calls++
				return tt.err
			})
			if err == nil {
				t.Fatal("expected error")
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retryWithBackoff(ctx, 3, func() error {
		calls++
		cancel()
		return &rateLimitError{}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestIsAuthError(t *testing.T) {
	if !IsAuthError(&authError{message: "x"}) {
		t.Error("IsAuthError(authError) = false")
	}
	if !IsAuthError(fmt.Errorf("wrapped: %w", &authError{})) {
		t.Error("IsAuthError(wrapped) = false")
	}
	if IsAuthError(&rateLimitError{}) || IsAuthError(nil) {
		t.Error("IsAuthError matched a non-auth error")
	}
}

func TestStatusError(t *testing.T) {
	if !isRetryable(statusError(429, nil)) {
		t.Error("429 should be retryable")
	}
	if !isRetryable(statusError(503, []byte("down"))) {
		t.Error("503 should be retryable")
	}
	if !IsAuthError(statusError(401, nil)) || !IsAuthError(statusError(403, nil)) {
		t.Error("401/403 should be auth errors")
	}
	if isRetryable(statusError(400, nil)) {
		t.Error("400 should not be retryable")
	}
}
