package testgen_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"flowmind/internal/services"
	"flowmind/internal/store"
	"flowmind/internal/testgen"
	"flowmind/internal/testsupport"
)

type scriptedCompleter struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (s *scriptedCompleter) CompleteJSON(_ context.Context, _, user string) (string, error) {
	idx := s.calls
	s.calls++
	s.prompts = append(s.prompts, user)
	if idx < len(s.errs) && s.errs[idx] != nil {
		return "", s.errs[idx]
	}
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	return `{"scenarios": []}`, nil
}

const fullResponse = `{"scenarios": [
	{"scenario_type": "positive", "title": "Valid login", "gherkin": "Scenario: Valid login\n  Given a user\n  When they log in\n  Then access is granted", "tags": ["@positive"]},
	{"scenario_type": "negative", "title": "Bad password", "gherkin": "Scenario: Bad password Given a user When the password is wrong Then access is denied", "tags": ["@negative"]},
	{"scenario_type": "regression", "title": "Session survives", "gherkin": "Scenario: Session survives Given an active session When the service restarts Then the session remains valid", "tags": ["@regression"]}
]}`

func TestGenerateFullSet(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{fullResponse}}
	generator := testgen.New(completer, nil)
	req := testsupport.SampleRequirement(1)

	result, err := generator.Generate(context.Background(), req, "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if completer.calls != 1 {
		t.Fatalf("complete set must not trigger retry, got %d calls", completer.calls)
	}
	if result.Shortfall != 0 || len(result.Cases) != 3 {
		t.Fatalf("unexpected result: shortfall=%d cases=%d", result.Shortfall, len(result.Cases))
	}

	positive := result.Cases[0]
	if positive.ID != "TC-REQ-001-positive" || positive.ScenarioType != store.ScenarioPositive {
		t.Fatalf("unexpected first case: %+v", positive)
	}
	if strings.Contains(positive.Gherkin, "\n") {
		t.Fatalf("gherkin must be single-line, got %q", positive.Gherkin)
	}
	if positive.Tags[0] != "positive" {
		t.Fatalf("tags must drop the @ prefix, got %v", positive.Tags)
	}
	if positive.ContentHash == "" {
		t.Fatal("expected content hash on generated case")
	}
}

func TestGenerateRetriesMissingTypes(t *testing.T) {
	partial := `{"scenarios": [
		{"scenario_type": "positive", "title": "Valid login", "gherkin": "Scenario: Valid login Given a user When they log in Then access is granted", "tags": []}
	]}`
	retry := `{"scenarios": [
		{"scenario_type": "negative", "title": "Bad password", "gherkin": "Scenario: Bad password Given a user When the password is wrong Then access is denied", "tags": []},
		{"scenario_type": "regression", "title": "Session survives", "gherkin": "Scenario: Session survives Given a session When the service restarts Then it remains valid", "tags": []}
	]}`
	completer := &scriptedCompleter{responses: []string{partial, retry}}
	generator := testgen.New(completer, nil)

	result, err := generator.Generate(context.Background(), testsupport.SampleRequirement(1), "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if completer.calls != 2 {
		t.Fatalf("expected one retry, got %d calls", completer.calls)
	}
	if !strings.Contains(completer.prompts[1], "negative, regression") {
		t.Fatalf("retry prompt must name the missing types: %q", completer.prompts[1])
	}
	if result.Shortfall != 0 || len(result.Cases) != 3 {
		t.Fatalf("expected full set after retry: shortfall=%d cases=%d", result.Shortfall, len(result.Cases))
	}
}

func TestGenerateAcceptsPartialAfterRetry(t *testing.T) {
	partial := `{"scenarios": [
		{"scenario_type": "positive", "title": "Valid login", "gherkin": "Scenario: Valid login Given a user When they log in Then access is granted", "tags": []}
	]}`
	completer := &scriptedCompleter{responses: []string{partial, `{"scenarios": []}`}}
	generator := testgen.New(completer, nil)

	result, err := generator.Generate(context.Background(), testsupport.SampleRequirement(1), "")
	if err != nil {
		t.Fatalf("partial set must not be an error: %v", err)
	}
	if result.Shortfall != 2 || len(result.Cases) != 1 {
		t.Fatalf("unexpected partial result: shortfall=%d cases=%d", result.Shortfall, len(result.Cases))
	}
}

func TestGenerateDropsInvalidGherkin(t *testing.T) {
	invalid := `{"scenarios": [
		{"scenario_type": "positive", "title": "No steps", "gherkin": "Scenario: No steps at all", "tags": []}
	]}`
	completer := &scriptedCompleter{responses: []string{invalid, `{"scenarios": []}`}}
	generator := testgen.New(completer, nil)

	result, err := generator.Generate(context.Background(), testsupport.SampleRequirement(1), "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(result.Cases) != 0 || result.Shortfall != 3 {
		t.Fatalf("invalid gherkin must be dropped: %+v", result)
	}
}

func TestGenerateModelError(t *testing.T) {
	completer := &scriptedCompleter{errs: []error{errors.New("upstream 500")}}
	generator := testgen.New(completer, nil)

	_, err := generator.Generate(context.Background(), testsupport.SampleRequirement(1), "")
	if !errors.Is(err, services.ErrTestGeneration) {
		t.Fatalf("expected test generation marker, got %v", err)
	}
}

func TestNormalizeGherkin(t *testing.T) {
	got := testgen.NormalizeGherkin("Scenario: X\n  Given a\tthing\n  When it runs\n  Then it works\n")
	want := "Scenario: X Given a thing When it runs Then it works"
	if got != want {
		t.Fatalf("NormalizeGherkin = %q, want %q", got, want)
	}
}

func TestValidGherkin(t *testing.T) {
	if testgen.ValidGherkin("Scenario: X Given a When b") {
		t.Fatal("missing Then must be invalid")
	}
	if !testgen.ValidGherkin("Scenario: X Given a When b Then c") {
		t.Fatal("complete scenario must be valid")
	}
	if testgen.ValidGherkin("") {
		t.Fatal("empty body must be invalid")
	}
}
