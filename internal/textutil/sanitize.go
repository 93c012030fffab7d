package textutil

import "strings"

const slugMaxLen = 60

// Slug converts a string to a lowercase hyphenated token suitable for tracker
// labels. Non-alphanumeric runs collapse to a single hyphen and the result is
// capped at 60 characters. Returns "na" for input with no usable characters.
func Slug(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	var b strings.Builder
	lastHyphen := true
	for _, r := range lowered {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > slugMaxLen {
		out = strings.Trim(out[:slugMaxLen], "-")
	}
	if out == "" {
		return "na"
	}
	return out
}

// CollapseWhitespace replaces runs of spaces and tabs with a single space and
// trims the result.
func CollapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
