// Package services defines shared error semantics consumed by the pipeline
// stage handlers and external integrations.
//
// Each failure is tagged with one of the exported sentinel markers so callers
// can classify it without string matching: empty transcripts are valid
// zero-result runs, extraction failures abort a single chunk, test-generation
// shortfalls downgrade to partial results, sync failures skip one item, and
// persistence failures are fatal. The Wrap helper stamps stage and operation
// context onto every error so operators can tell which requirement or stage
// produced it.
package services
