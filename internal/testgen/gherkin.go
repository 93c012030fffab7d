package testgen

import (
	"regexp"
	"strings"
)

var gherkinSpacing = regexp.MustCompile(`[ \t]+`)

// NormalizeGherkin collapses a scenario body onto a single line with single
// spaces, so storage and content hashing are stable across formatting
// variations.
func NormalizeGherkin(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(gherkinSpacing.ReplaceAllString(text, " "))
}

// ValidGherkin is a minimal sanity check: the body must carry a scenario
// header and at least one Given, When, and Then step.
func ValidGherkin(text string) bool {
	if text == "" {
		return false
	}
	for _, token := range []string{"Scenario:", "Given", "When", "Then"} {
		if !strings.Contains(text, token) {
			return false
		}
	}
	return true
}
