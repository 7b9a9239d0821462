package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestOpenAI(server *httptest.Server) *OpenAI {
	return &OpenAI{
		apiKey:  "test-key",
		model:   "gpt-3.5-turbo",
		baseURL: server.URL,
		client:  server.Client(),
	}
}

func TestOpenAI_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Missing or wrong Authorization header")
		}
		var body openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if body.Stream {
			t.Error("Stream set without OnDelta")
		}
		if len(body.Messages) != 3 || body.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", body.Messages)
		}
		if body.Temperature == nil || *body.Temperature != 0.5 {
			t.Errorf("temperature = %v, want 0.5", body.Temperature)
		}
		if body.TopP != nil {
			t.Errorf("top_p = %v, want omitted", *body.TopP)
		}
		json.NewEncoder(w).Encode(openaiResponse{
			Choices: []openaiChoice{{Message: Message{Role: "assistant", Content: "define x"}}},
			Usage:   openaiUsage{TotalTokens: 50},
		})
	}))
	defer server.Close()

	resp, err := newTestOpenAI(server).Complete(context.Background(), Request{
		Messages:    testMessages(),
		Temperature: 0.5,
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if resp.Content != "define x" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.TokensUsed != 50 {
		t.Errorf("TokensUsed = %d, want 50", resp.TokensUsed)
	}
}

func TestOpenAI_Stream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body openaiRequest
		json.NewDecoder(r.Body).Decode(&body)
		if !body.Stream {
			t.Error("expected stream=true")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Define ", "x ", "first."} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	var deltas []string
	resp, err := newTestOpenAI(server).Complete(context.Background(), Request{
		Messages: testMessages(),
		OnDelta:  func(s string) { deltas = append(deltas, s) },
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if resp.Content != "Define x first." {
		t.Errorf("Content = %q", resp.Content)
	}
	if strings.Join(deltas, "|") != "Define |x |first." {
		t.Errorf("deltas = %q", deltas)
	}
}

func TestOpenAI_StreamWithoutDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}")
	}))
	defer server.Close()

	resp, err := newTestOpenAI(server).Complete(context.Background(), Request{
		Messages: testMessages(),
		OnDelta:  func(string) {},
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q", resp.Content)
	}
}

func TestOpenAI_StreamingDisabled(t *testing.T) {
	t.Setenv("DISABLE_STREAMING", "true")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body openaiRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.Stream {
			t.Error("stream requested despite DISABLE_STREAMING")
		}
		json.NewEncoder(w).Encode(openaiResponse{
			Choices: []openaiChoice{{Message: Message{Content: "whole"}}},
		})
	}))
	defer server.Close()

	var got string
	_, err := newTestOpenAI(server).Complete(context.Background(), Request{
		Messages: testMessages(),
		OnDelta:  func(s string) { got += s },
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if got != "whole" {
		t.Errorf("OnDelta received %q, want full text once", got)
	}
}

func TestOpenAI_RateLimit(t *testing.T) {
	fastRetry(t)
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(429)
			w.Write([]byte(`{"error":"rate limited"}`))
			return
		}
		json.NewEncoder(w).Encode(openaiResponse{
			Choices: []openaiChoice{{Message: Message{Role: "assistant", Content: "ok"}}},
		})
	}))
	defer server.Close()

	resp, err := newTestOpenAI(server).Complete(context.Background(), Request{Messages: testMessages()})
	if err != nil {
		t.Fatalf("Complete error after retries: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q", resp.Content)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestOpenAI_ServerErrorExhaustsRetries(t *testing.T) {
	fastRetry(t)
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(502)
		w.Write([]byte("bad gateway"))
	}))
	defer server.Close()

	_, err := newTestOpenAI(server).Complete(context.Background(), Request{Messages: testMessages()})
	if err == nil || !strings.Contains(err.Error(), "bad gateway") {
		t.Errorf("err = %v, want server error", err)
	}
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4", attempts)
	}
}

func TestOpenAI_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		w.Write([]byte(`{"error":"invalid key"}`))
	}))
	defer server.Close()

	_, err := newTestOpenAI(server).Complete(context.Background(), Request{Messages: testMessages()})
	if !IsAuthError(err) {
		t.Errorf("err = %v, want auth error", err)
	}
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	if _, err := newTestOpenAI(server).Complete(context.Background(), Request{Messages: testMessages()}); err == nil {
		t.Error("expected error for empty choices")
	}
}
