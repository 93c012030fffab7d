package transcript

import (
	"context"
	"strings"

	"flowmind/internal/llm"
)

const classifierSystemPrompt = "Classify meeting transcript lines. Reply exactly: business OR small talk."

// LLMClassifier asks a lightweight model whether a flagged line carries
// business content. Any answer that does not mention "business" counts as
// small talk.
type LLMClassifier struct {
	client *llm.Client
}

// NewLLMClassifier wraps an LLM client for line classification.
func NewLLMClassifier(client *llm.Client) *LLMClassifier {
	return &LLMClassifier{client: client}
}

// IsSmallTalk implements Classifier.
func (c *LLMClassifier) IsSmallTalk(ctx context.Context, line string) (bool, error) {
	label, err := c.client.Complete(ctx, classifierSystemPrompt, line)
	if err != nil {
		return false, err
	}
	return !strings.Contains(strings.ToLower(label), "business"), nil
}
