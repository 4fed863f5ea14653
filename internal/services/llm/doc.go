// Package llm provides an OpenAI-compatible chat-completions client used for
// query expansion.
//
// The client sends system/user prompts with JSON response format enforced and
// returns the raw JSON payload the model produced. Callers decode it with
// DecodeLLMJSON, which tolerates code fences and prose wrapped around the
// JSON body.
//
// # Retry Behaviour
//
// Requests retry on HTTP 408/429/5xx and network timeouts with exponential
// backoff (base 1s, max 10s, up to 5 attempts by default), honouring
// Retry-After headers. Context cancellation aborts retries immediately.
//
// # Fallback
//
// Expansion is best-effort: when this client fails, the caller searches with
// the user's original words instead. Nothing in this package should panic or
// block beyond the configured timeout.
package llm
