package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeJSON decodes JSON from a model response, repairing common formatting
// quirks before giving up: code fences are stripped, the outermost JSON
// object or array is extracted from surrounding prose, and as a last resort
// every balanced brace span is tried in order.
func DecodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized != "" && sanitized != trimmed {
		if err := json.Unmarshal([]byte(sanitized), target); err == nil {
			return nil
		}
	}

	if candidate := firstBalancedSpan(trimmed, target); candidate {
		return nil
	}
	return fmt.Errorf("%w (payload snippet: %s)", directErr, SummarizeSnippet(trimmed))
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	if start := strings.Index(trimmed, "["); start >= 0 {
		if end := strings.LastIndex(trimmed, "]"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

// firstBalancedSpan scans for balanced {...} or [...] spans and tries each as
// a JSON document. Handles payloads where prose follows truncated or nested
// structures that the simple outermost-extraction misreads.
func firstBalancedSpan(content string, target any) bool {
	for start := 0; start < len(content); start++ {
		open := content[start]
		if open != '{' && open != '[' {
			continue
		}
		var stack []byte
		for i := start; i < len(content); i++ {
			switch ch := content[i]; ch {
			case '{', '[':
				stack = append(stack, ch)
			case '}', ']':
				if len(stack) == 0 {
					i = len(content)
					continue
				}
				opener := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if (opener == '{' && ch != '}') || (opener == '[' && ch != ']') {
					i = len(content)
					continue
				}
				if len(stack) == 0 {
					if json.Unmarshal([]byte(content[start:i+1]), target) == nil {
						return true
					}
					i = len(content)
				}
			}
		}
	}
	return false
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
		body = strings.TrimLeft(body, " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

// SummarizeSnippet condenses a payload into a single diagnostic line.
func SummarizeSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := strings.Join(strings.Fields(replacer.Replace(trimmed)), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		return string(runes[:limit]) + "…"
	}
	return clean
}
