package store

import (
	"fmt"
	"time"
)

// Status represents the approval lifecycle of a requirement.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
)

// ScenarioType tags one of the three BDD scenarios generated per requirement.
type ScenarioType string

const (
	ScenarioPositive   ScenarioType = "positive"
	ScenarioNegative   ScenarioType = "negative"
	ScenarioRegression ScenarioType = "regression"
)

// ScenarioTypes returns the canonical scenario order.
func ScenarioTypes() []ScenarioType {
	return []ScenarioType{ScenarioPositive, ScenarioNegative, ScenarioRegression}
}

// CriteriaCount is the number of acceptance criteria every persisted
// requirement carries. Shorter lists are padded, longer ones truncated.
const CriteriaCount = 3

// Requirement is one extracted business requirement.
type Requirement struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	AcceptanceCriteria []string  `json:"acceptance_criteria"`
	Priority           string    `json:"priority,omitempty"`
	Epic               string    `json:"epic,omitempty"`
	Status             Status    `json:"status"`
	ContentHash        string    `json:"content_hash"`
	RemoteKey          string    `json:"remote_key,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TestCase is one BDD scenario owned by a requirement.
type TestCase struct {
	ID            string       `json:"id"`
	RequirementID string       `json:"requirement_id"`
	ScenarioType  ScenarioType `json:"scenario_type"`
	Title         string       `json:"title"`
	Gherkin       string       `json:"gherkin"`
	Tags          []string     `json:"tags,omitempty"`
	ContentHash   string       `json:"content_hash"`
	RemoteKey     string       `json:"remote_key,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// TestCaseID derives the stable identifier for a (requirement, scenario type)
// pair. One test case exists per pair; re-runs supersede it in place.
func TestCaseID(requirementID string, scenarioType ScenarioType) string {
	return fmt.Sprintf("TC-%s-%s", requirementID, scenarioType)
}

// FilterStats reports transcript filtering results for the run summary and
// the artifact document.
type FilterStats struct {
	Total          int  `json:"total_lines"`
	Kept           int  `json:"kept"`
	Dropped        int  `json:"dropped"`
	UsedClassifier bool `json:"use_llm_classifier"`
}

// ActionEntry is one append-only action-log record.
type ActionEntry struct {
	ID        int64          `json:"id"`
	SessionID string         `json:"session_id"`
	At        time.Time      `json:"at"`
	Action    string         `json:"action"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// RemoteLink maps a (requirement, scenario type) pair to a tracker issue key
// and the content hash recorded at the last successful sync. Scenario type ""
// denotes the requirement's own Story.
type RemoteLink struct {
	RequirementID string
	ScenarioType  ScenarioType
	RemoteKey     string
	SyncedHash    string
	UpdatedAt     time.Time
}
