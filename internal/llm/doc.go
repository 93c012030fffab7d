// Package llm wraps the OpenAI-compatible chat completion API used by the
// extraction, test generation, and small-talk classification stages.
//
// The model is an opaque request/response boundary: the client requests
// JSON-only completions, retries transient HTTP failures with backoff, and
// exposes DecodeJSON, a repair pipeline for the malformed payloads models
// return in practice (markdown fencing, surrounding prose, truncated braces).
package llm
