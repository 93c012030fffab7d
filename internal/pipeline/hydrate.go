package pipeline

import (
	"context"
	"fmt"
	"strings"

	"flowmind/internal/store"
)

const defaultTone = "British English"

// hydratePreamble builds the memory-derived system preamble shared by the
// extraction and test generation prompts: tone always, Story prefix when a
// project recorded one.
func hydratePreamble(ctx context.Context, st *store.Store, projectID, sessionID string) string {
	tone := defaultTone
	if value, ok, err := st.LookupMemory(ctx, "tone", projectID, sessionID); err == nil && ok {
		tone = strings.TrimSpace(value)
	}
	blocks := []string{fmt.Sprintf("[Tone] Use %s.", tone)}
	if prefix, ok, err := st.LookupMemory(ctx, "jira_story_prefix", projectID, sessionID); err == nil && ok {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			blocks = append(blocks, "[Jira] Story prefix: "+prefix)
		}
	}
	return strings.Join(blocks, "\n\n")
}
