package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"flowmind/internal/textutil"
)

// RequirementHash fingerprints the logical content of a requirement. The
// hash is computed over whitespace-normalized fields so re-serialization
// (artifact round-trips, DB reloads) never changes it.
func RequirementHash(r Requirement) string {
	parts := make([]string, 0, 3+len(r.AcceptanceCriteria))
	parts = append(parts,
		textutil.CollapseWhitespace(r.Title),
		textutil.CollapseWhitespace(r.Description),
	)
	for _, criterion := range r.AcceptanceCriteria {
		parts = append(parts, textutil.CollapseWhitespace(criterion))
	}
	return hashParts(parts)
}

// TestCaseHash fingerprints the logical content of a test case.
func TestCaseHash(tc TestCase) string {
	return hashParts([]string{
		tc.RequirementID,
		string(tc.ScenarioType),
		textutil.CollapseWhitespace(tc.Title),
		textutil.CollapseWhitespace(tc.Gherkin),
	})
}

func hashParts(parts []string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}
