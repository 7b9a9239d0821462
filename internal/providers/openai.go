package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aidebug/aidebug/internal/logging"
)

const defaultOpenAIHost = "https://api.openai.com"

// OpenAI implements the Client interface for OpenAI's chat completions API.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAI creates a new OpenAI provider. OPENAI_API_HOST overrides the API
// host, e.g. for an Azure or proxy deployment.
func NewOpenAI(model string) (*OpenAI, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set: %w", ErrNoAPIKey)
	}
	host := os.Getenv("OPENAI_API_HOST")
	if host == "" {
		host = defaultOpenAIHost
	}
	return &OpenAI{
		apiKey:  key,
		model:   model,
		baseURL: chatCompletionsURL(host),
		client:  &http.Client{Timeout: requestTimeout(120 * time.Second)},
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Complete(ctx context.Context, req Request) (Response, error) {
	return completeOpenAICompatible(ctx, o.client, o.baseURL, o.apiKey, o.model, req)
}

// chatCompletionsURL normalizes a host or base URL to the chat completions
// endpoint.
func chatCompletionsURL(base string) string {
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/v1/chat/completions")
	base = strings.TrimSuffix(base, "/v1")
	return base + "/v1/chat/completions"
}

// requestTimeout reads REQUEST_TIMEOUT (seconds), falling back to def.
func requestTimeout(def time.Duration) time.Duration {
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil && d > 0 {
			return d
		}
	}
	return def
}

// streamingDisabled honours DISABLE_STREAMING.
func streamingDisabled() bool {
	v := strings.ToLower(os.Getenv("DISABLE_STREAMING"))
	return v == "1" || v == "true" || v == "yes"
}

func completeOpenAICompatible(ctx context.Context, client *http.Client, url, apiKey, model string, req Request) (Response, error) {
	stream := req.OnDelta != nil && !streamingDisabled()
	body := openaiRequest{
		Model:       model,
		Messages:    req.Messages,
		MaxTokens:   maxTokensOrDefault(req.MaxTokens),
		Temperature: optional(req.Temperature),
		TopP:        optional(req.TopP),
		Stream:      stream,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}

	logger := logging.FromContext(ctx)
	logger.Debug("chat completion request",
		zap.String("model", model),
		zap.Int("message_count", len(req.Messages)),
		zap.Bool("stream", stream),
	)

	var resp Response
	err = retryWithBackoff(ctx, 3, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+apiKey)
		}

		httpResp, err := client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer httpResp.Body.Close()

		if httpResp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(httpResp.Body)
			return statusError(httpResp.StatusCode, respBody)
		}

		// Retries stop once the stream has started.
		if stream {
			resp, err = readOpenAIStream(ctx, httpResp.Body, req.OnDelta)
			if err != nil {
				return &streamError{err: err}
			}
			return nil
		}

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		var result openaiResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
		if len(result.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}
		if result.Choices[0].Message.Content == "" {
			return fmt.Errorf("empty text content in API response")
		}
		resp = Response{
			Content:    result.Choices[0].Message.Content,
			TokensUsed: result.Usage.TotalTokens,
		}
		if req.OnDelta != nil {
			req.OnDelta(resp.Content)
		}
		return nil
	})
	if err != nil {
		logger.Warn("chat completion failed", zap.String("model", model), zap.Error(err))
	}
	return resp, err
}

type streamError struct {
	err error
}

func (e *streamError) Error() string { return "reading stream: " + e.err.Error() }
func (e *streamError) Unwrap() error { return e.err }

// readOpenAIStream consumes an SSE body of chat completion chunks until the
// [DONE] sentinel or EOF.
func readOpenAIStream(ctx context.Context, body io.Reader, onDelta func(string)) (Response, error) {
	reader := bufio.NewReader(body)
	var sb strings.Builder
	var tokens int
	for {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return Response{}, err
		}
		done := err == io.EOF

		line = bytes.TrimSpace(line)
		const prefix = "data:"
		if bytes.HasPrefix(line, []byte(prefix)) {
			payload := bytes.TrimSpace(line[len(prefix):])
			if bytes.Equal(payload, []byte("[DONE]")) {
				break
			}
			var chunk openaiStreamChunk
			if err := json.Unmarshal(payload, &chunk); err != nil {
				return Response{}, fmt.Errorf("parsing stream chunk: %w", err)
			}
			if chunk.Usage != nil {
				tokens = chunk.Usage.TotalTokens
			}
			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				sb.WriteString(choice.Delta.Content)
				onDelta(choice.Delta.Content)
			}
		}
		if done {
			break
		}
	}
	if sb.Len() == 0 {
		return Response{}, fmt.Errorf("empty text content in stream")
	}
	return Response{Content: sb.String(), TokensUsed: tokens}, nil
}

type openaiRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiChoice struct {
	Message Message `json:"message"`
}

type openaiUsage struct {
	TotalTokens int `json:"total_tokens"`
}

type openaiStreamChunk struct {
	Choices []openaiStreamChoice `json:"choices"`
	Usage   *openaiUsage         `json:"usage,omitempty"`
}

type openaiStreamChoice struct {
	Delta        openaiDelta `json:"delta"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

type openaiDelta struct {
	Content string `json:"content"`
}
