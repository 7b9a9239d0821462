package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGemini_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Error("Missing API key in x-goog-api-key header")
		}
		if !strings.HasSuffix(r.URL.Path, "/gemini-2.0-flash:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if body.SystemInstruction == nil || body.SystemInstruction.Parts[0].Text == "" {
			t.Error("system instruction missing")
		}
		if len(body.Contents) != 2 || body.Contents[1].Role != "model" {
			t.Errorf("contents = %+v", body.Contents)
		}
		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{
				{Content: geminiContent{Parts: []geminiPart{{Text: "use x"}}}},
			},
			UsageMetadata: geminiUsage{TotalTokenCount: 75},
		})
	}))
	defer server.Close()

	g := &Gemini{
		apiKey: "test-key",
		model:  "gemini-2.0-flash",
		client: &http.Client{
			Transport: &rewriteTransport{
				base:    server.Client().Transport,
				baseURL: server.URL,
			},
		},
	}

	msgs := append(testMessages()[:2], Message{Role: "assistant", Content: "earlier answer"})
	resp, err := g.Complete(context.Background(), Request{Messages: msgs, MaxTokens: 10})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if resp.Content != "use x" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.TokensUsed != 75 {
		t.Errorf("TokensUsed = %d, want 75", resp.TokensUsed)
	}
}

func TestGemini_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	g := &Gemini{
		apiKey: "k",
		model:  "gemini-2.0-flash",
		client: &http.Client{Transport: &rewriteTransport{base: server.Client().Transport, baseURL: server.URL}},
	}
	if _, err := g.Complete(context.Background(), Request{Messages: testMessages()}); err == nil {
		t.Error("expected error for empty candidates")
	}
}
