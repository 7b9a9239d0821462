// Package providers implements the Client interface for each supported chat
// completion API.
//
// Supported providers: OpenAI (GPT), Anthropic (Claude), Google (Gemini), and
// Ollama / LM Studio for local models through their OpenAI-compatible
// endpoint.
//
// OpenAI-compatible providers stream server-sent events when a Request has an
// OnDelta sink; the other providers deliver the full text to OnDelta in a
// single call. All providers share a retry helper with exponential back-off
// for rate-limit and server errors. Authentication errors are never retried.
//
// Use [New] to obtain a Client by provider name and model string.
package providers
