package providers

import (
	"context"
	"net/http"
	"os"
	"time"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama implements the Client interface for Ollama and LM Studio through
// their OpenAI-compatible API.
type Ollama struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOllama creates a new Ollama provider. No API key is required by default.
func NewOllama(model string) (*Ollama, error) {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	return &Ollama{
		// Optional, for servers that require one (e.g. LM Studio).
		apiKey:  os.Getenv("AIDEBUG_OLLAMA_API_KEY"),
		model:   model,
		baseURL: chatCompletionsURL(baseURL),
		client:  &http.Client{Timeout: requestTimeout(300 * time.Second)},
	}, nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Complete(ctx context.Context, req Request) (Response, error) {
	return completeOpenAICompatible(ctx, o.client, o.baseURL, o.apiKey, o.model, req)
}
