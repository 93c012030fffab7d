package main

import (
	"strings"
	"time"
)

const summaryDurationPrecision = 10 * time.Millisecond

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}
