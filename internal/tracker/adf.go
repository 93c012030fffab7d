package tracker

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"flowmind/internal/store"
	"flowmind/internal/textutil"
)

var titleCaser = cases.Title(language.English)

// Node is one Atlassian Document Format node.
type Node struct {
	Type    string         `json:"type"`
	Version int            `json:"version,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Text    string         `json:"text,omitempty"`
	Content []Node         `json:"content,omitempty"`
}

// Doc wraps nodes into a version-1 ADF document.
func Doc(nodes ...Node) Node {
	return Node{Type: "doc", Version: 1, Content: nodes}
}

// Paragraph builds a plain text paragraph.
func Paragraph(text string) Node {
	return Node{Type: "paragraph", Content: []Node{{Type: "text", Text: text}}}
}

// Heading builds a heading node at the given level (clamped to 1..6).
func Heading(text string, level int) Node {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return Node{
		Type:    "heading",
		Attrs:   map[string]any{"level": level},
		Content: []Node{{Type: "text", Text: text}},
	}
}

// CodeBlock builds a fenced code block.
func CodeBlock(code, lang string) Node {
	return Node{
		Type:    "codeBlock",
		Attrs:   map[string]any{"language": lang},
		Content: []Node{{Type: "text", Text: code}},
	}
}

// RequirementLabel is the deterministic marker label for a requirement's
// Story.
func RequirementLabel(requirementID string) string {
	return "req-" + strings.ToLower(requirementID)
}

// TestCaseLabel is the deterministic marker label for a test case's Task.
func TestCaseLabel(requirementID string, scenarioType store.ScenarioType) string {
	return fmt.Sprintf("tc-%s-%s", strings.ToLower(requirementID), textutil.Slug(string(scenarioType)))
}

// StorySummary renders the Story summary line for a requirement.
func StorySummary(req store.Requirement) string {
	title := req.Title
	if strings.TrimSpace(title) == "" {
		title = "Untitled requirement"
	}
	return fmt.Sprintf("[%s] %s", req.ID, title)
}

// TaskSummary renders the Task summary line for a test case.
func TaskSummary(tc store.TestCase) string {
	return fmt.Sprintf("[TC::%s::%s] %s for %s",
		tc.RequirementID, tc.ScenarioType,
		titleCaser.String(string(tc.ScenarioType)), tc.RequirementID)
}

// StoryDescription renders the ADF body for a requirement's Story.
func StoryDescription(req store.Requirement) Node {
	nodes := []Node{
		Heading("Requirement", 2),
		Paragraph("ID: " + req.ID),
		Paragraph("Title: " + req.Title),
	}
	if req.Description != "" {
		nodes = append(nodes, Heading("Description", 3), Paragraph(req.Description))
	}
	if len(req.AcceptanceCriteria) > 0 {
		nodes = append(nodes,
			Heading("Acceptance Criteria", 3),
			Paragraph(strings.Join(req.AcceptanceCriteria, "\n")))
	}
	nodes = append(nodes, Heading("Sync", 3), Paragraph("Auto-synced by the flowmind pipeline."))
	return Doc(nodes...)
}

// TaskDescription renders the ADF body for a test case's Task, with the
// Gherkin in a code block.
func TaskDescription(tc store.TestCase) Node {
	return Doc(
		Heading("Test Case", 2),
		Paragraph("Requirement: "+tc.RequirementID),
		Paragraph("Scenario type: "+string(tc.ScenarioType)),
		Heading("Gherkin", 3),
		CodeBlock(tc.Gherkin, "gherkin"),
		Heading("Sync", 3),
		Paragraph("Auto-synced by the flowmind pipeline."),
	)
}
