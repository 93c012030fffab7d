package testsupport

import (
	"fmt"
	"testing"

	"flowmind/internal/config"
	"flowmind/internal/store"
)

// MustOpenStore opens a store for the supplied config and closes it when the
// test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// SampleRequirement builds a draft requirement with three criteria.
func SampleRequirement(seq int) store.Requirement {
	id := fmt.Sprintf("REQ-%03d", seq)
	return store.Requirement{
		ID:          id,
		Title:       fmt.Sprintf("Requirement %d", seq),
		Description: fmt.Sprintf("Description for requirement %d.", seq),
		AcceptanceCriteria: []string{
			"Given a precondition, When an action occurs, Then an outcome is visible",
			"Given a second precondition, When another action occurs, Then a second outcome is visible",
			"Given a third precondition, When a final action occurs, Then a third outcome is visible",
		},
		Priority: "High",
		Status:   store.StatusDraft,
	}
}

// SampleTestCases builds the three canonical scenarios for a requirement.
func SampleTestCases(requirementID string) []store.TestCase {
	types := store.ScenarioTypes()
	cases := make([]store.TestCase, 0, len(types))
	for _, scenarioType := range types {
		cases = append(cases, store.TestCase{
			ID:            store.TestCaseID(requirementID, scenarioType),
			RequirementID: requirementID,
			ScenarioType:  scenarioType,
			Title:         fmt.Sprintf("%s flow", scenarioType),
			Gherkin:       fmt.Sprintf("Scenario: %s flow Given a state When an action Then a result", scenarioType),
			Tags:          []string{string(scenarioType)},
		})
	}
	return cases
}
