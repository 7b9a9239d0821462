package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoAPIKey is returned by constructors when the provider key is not set.
var ErrNoAPIKey = errors.New("API key not set")

// Message is one chat turn. Role is system, user or assistant.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request contains the conversation sent to an LLM.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	TopP        float64
	// OnDelta, when set, receives response text as it arrives.
	OnDelta func(string)
}

// Response contains the assembled reply.
type Response struct {
	Content    string
	TokensUsed int
}

// Client is the provider abstraction.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}

// New creates a provider by name.
func New(provider, model string) (Client, error) {
	switch provider {
	case "openai":
		return NewOpenAI(model)
	case "anthropic":
		return NewAnthropic(model)
	case "gemini", "google":
		return NewGemini(model)
	case "ollama", "lmstudio":
		return NewOllama(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// splitSystem separates system messages from the conversation and merges
// consecutive turns that share a role. Providers without a system role in
// their message list take the joined system text separately.
func splitSystem(msgs []Message) (string, []Message) {
	var system []string
	var rest []Message
	for _, m := range msgs {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		if n := len(rest); n > 0 && rest[n-1].Role == m.Role {
			rest[n-1].Content += "\n\n" + m.Content
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return 4096
	}
	return n
}

func optional(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
