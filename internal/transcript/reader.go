package transcript

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"flowmind/internal/services"
)

var (
	timecodePattern = regexp.MustCompile(`^\s*\d{2}:\d{2}:\d{2}[.,]\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}[.,]\d{3}.*$`)
	cueNumber       = regexp.MustCompile(`^\s*\d+\s*$`)
	voiceTag        = regexp.MustCompile(`</?v[^>]*>`)
	speakerLabel    = regexp.MustCompile(`^[A-Z][\w .'-]{0,40}:\s+`)
)

// ReadLines loads a transcript file and returns its utterance lines with
// WebVTT headers, cue numbers, timecodes, and speaker labels removed.
// Returns ErrEmptyTranscript when nothing substantive remains.
func ReadLines(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "read_transcript",
			fmt.Sprintf("read transcript %s", path), err)
	}
	lines := CleanLines(string(raw))
	if len(lines) == 0 {
		return nil, services.Wrap(services.ErrEmptyTranscript, "ingest", "read_transcript",
			fmt.Sprintf("transcript %s has no utterance lines", path), nil)
	}
	return lines, nil
}

// CleanLines strips subtitle-track metadata from raw transcript text and
// returns the remaining non-empty lines in order.
func CleanLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "WEBVTT"):
			continue
		case strings.HasPrefix(trimmed, "NOTE"):
			continue
		case timecodePattern.MatchString(trimmed):
			continue
		case cueNumber.MatchString(trimmed):
			continue
		}
		trimmed = voiceTag.ReplaceAllString(trimmed, "")
		trimmed = speakerLabel.ReplaceAllString(trimmed, "")
		trimmed = strings.TrimSpace(trimmed)
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
