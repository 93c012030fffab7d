// Package pipeline orchestrates one transcript-to-requirements run: ingest,
// small-talk filtering, extraction, optional review, test generation,
// persistence, and optional tracker sync. Runs are serialized by a file
// lock and logged to the session action log.
package pipeline
