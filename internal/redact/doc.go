// Package redact removes secrets from project files before their content is
// fingerprinted or sent to any LLM provider.
//
// Detection runs in two passes. The gitleaks rule set finds provider tokens,
// private keys and high-entropy credentials; a small set of regex heuristics
// then catches assignments and connection strings the rules miss.
//
// Path-based redaction is also supported: files whose paths match configured
// glob patterns have their entire content replaced with [REDACTED].
package redact
