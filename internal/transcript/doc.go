// Package transcript loads meeting transcripts in WebVTT or plain-text form
// and filters out non-substantive small talk before extraction.
package transcript
