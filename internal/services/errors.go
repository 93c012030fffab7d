package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyTranscript marks a run whose transcript had no substantive
	// lines left after filtering. Downstream stages treat it as a valid
	// zero-result run, not a failure.
	ErrEmptyTranscript = errors.New("empty transcript")
	// ErrExtraction marks model output that could not be recovered into
	// requirement JSON after the repair pass. It aborts only the chunk
	// that produced it.
	ErrExtraction = errors.New("extraction failed")
	// ErrTestGeneration marks a requirement that ended up with fewer than
	// three scenarios after the stricter retry.
	ErrTestGeneration = errors.New("test generation incomplete")
	// ErrSync marks a per-item remote failure; the sync batch continues.
	ErrSync = errors.New("sync error")
	// ErrPersistence marks a store write failure. Always fatal.
	ErrPersistence = errors.New("persistence error")

	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether an error must abort the whole run rather than be
// downgraded to a partial result.
func Fatal(err error) bool {
	return errors.Is(err, ErrPersistence) || errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
