package testgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"flowmind/internal/llm"
	"flowmind/internal/logging"
	"flowmind/internal/services"
	"flowmind/internal/store"
)

const systemPrompt = `You are a QA engineer. You write BDD scenarios in Gherkin and respond with JSON only.`

const userPromptTemplate = `For the requirement below, generate exactly 3 scenarios in Gherkin:
- one "positive"
- one "negative"
- one "regression"

Rules:
- gherkin must start with 'Scenario:'
- each scenario must include at least one Given, one When, and one Then
- short, simple sentences
- include tags: @positive, @negative, @regression

Return a JSON object of the form {"scenarios": [...]} and nothing else, where
each scenario has:
- scenario_type ("positive"/"negative"/"regression")
- title
- gherkin (single string; include 'Scenario:' and Given/When/Then)
- tags (array, e.g. ["@positive"])

Requirement:
%s`

const strictRetrySuffix = `

Your previous answer was missing the following scenario types: %s.
Return ALL three scenario types this time. Valid JSON only, no prose, no code fences.`

// Completer is the slice of the LLM client the generator needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Generator produces BDD test cases for one requirement at a time.
type Generator struct {
	client Completer
	logger *slog.Logger
}

// New builds a generator.
func New(client Completer, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{client: client, logger: logger}
}

// Result carries the generated cases in canonical scenario order plus the
// number of scenario types still missing after the retry. Shortfall > 0 is a
// partial result the caller must tolerate.
type Result struct {
	Cases     []store.TestCase
	Shortfall int
}

type rawScenario struct {
	ScenarioType string   `json:"scenario_type"`
	Title        string   `json:"title"`
	Gherkin      string   `json:"gherkin"`
	Tags         []string `json:"tags"`
}

// Generate requests the three canonical scenarios for req. When the first
// response comes back incomplete it retries once with a stricter prompt for
// the missing types, then accepts whatever is valid.
func (g *Generator) Generate(ctx context.Context, req store.Requirement, systemPreamble string) (Result, error) {
	system := systemPrompt
	if preamble := strings.TrimSpace(systemPreamble); preamble != "" {
		system = preamble + "\n\n" + system
	}
	prompt := fmt.Sprintf(userPromptTemplate, requirementJSON(req))

	byType, err := g.requestScenarios(ctx, system, prompt, req)
	if err != nil {
		return Result{}, err
	}
	if missing := missingTypes(byType); len(missing) != 0 {
		g.logger.Warn("incomplete scenario set, retrying with stricter prompt",
			logging.String("requirement", req.ID),
			logging.Int("missing", len(missing)))
		retryPrompt := prompt + fmt.Sprintf(strictRetrySuffix, joinTypes(missing))
		retried, err := g.requestScenarios(ctx, system, retryPrompt, req)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			g.logger.Warn("strict retry failed, accepting partial scenario set",
				logging.String("requirement", req.ID),
				logging.Error(err))
		} else {
			for scenarioType, tc := range retried {
				if _, ok := byType[scenarioType]; !ok {
					byType[scenarioType] = tc
				}
			}
		}
	}

	var result Result
	for _, scenarioType := range store.ScenarioTypes() {
		tc, ok := byType[scenarioType]
		if !ok {
			result.Shortfall++
			continue
		}
		result.Cases = append(result.Cases, tc)
	}
	return result, nil
}

func (g *Generator) requestScenarios(ctx context.Context, system, prompt string, req store.Requirement) (map[store.ScenarioType]store.TestCase, error) {
	content, err := g.client.CompleteJSON(ctx, system, prompt)
	if err != nil {
		return nil, services.Wrap(services.ErrTestGeneration, "testgen", "complete",
			fmt.Sprintf("scenario generation for %s", req.ID), err)
	}
	raws, err := decodeScenarios(content)
	if err != nil {
		return nil, services.Wrap(services.ErrTestGeneration, "testgen", "decode",
			fmt.Sprintf("unparseable scenario payload for %s: %s", req.ID, llm.SummarizeSnippet(content)), err)
	}

	byType := make(map[store.ScenarioType]store.TestCase, store.CriteriaCount)
	for _, raw := range raws {
		scenarioType := store.ScenarioType(strings.ToLower(strings.TrimSpace(raw.ScenarioType)))
		if !knownType(scenarioType) {
			continue
		}
		if _, exists := byType[scenarioType]; exists {
			continue
		}
		gherkin := NormalizeGherkin(raw.Gherkin)
		if !ValidGherkin(gherkin) {
			g.logger.Warn("dropping invalid gherkin scenario",
				logging.String("requirement", req.ID),
				logging.String("scenario_type", string(scenarioType)))
			continue
		}
		tc := store.TestCase{
			ID:            store.TestCaseID(req.ID, scenarioType),
			RequirementID: req.ID,
			ScenarioType:  scenarioType,
			Title:         strings.TrimSpace(raw.Title),
			Gherkin:       gherkin,
			Tags:          normalizeTags(raw.Tags, scenarioType),
		}
		if tc.Title == "" {
			tc.Title = fmt.Sprintf("%s flow", scenarioType)
		}
		tc.ContentHash = store.TestCaseHash(tc)
		byType[scenarioType] = tc
	}
	return byType, nil
}

// decodeScenarios accepts the requested {"scenarios": [...]} envelope and the
// bare-array form some models return.
func decodeScenarios(content string) ([]rawScenario, error) {
	var envelope struct {
		Scenarios []rawScenario `json:"scenarios"`
	}
	if err := llm.DecodeJSON(content, &envelope); err == nil && envelope.Scenarios != nil {
		return envelope.Scenarios, nil
	}
	var list []rawScenario
	if err := llm.DecodeJSON(content, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func requirementJSON(req store.Requirement) string {
	payload := map[string]any{
		"id":                  req.ID,
		"title":               req.Title,
		"description":         req.Description,
		"acceptance_criteria": req.AcceptanceCriteria,
	}
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return req.ID + ": " + req.Title
	}
	return string(encoded)
}

func knownType(scenarioType store.ScenarioType) bool {
	for _, known := range store.ScenarioTypes() {
		if scenarioType == known {
			return true
		}
	}
	return false
}

func missingTypes(byType map[store.ScenarioType]store.TestCase) []store.ScenarioType {
	var missing []store.ScenarioType
	for _, scenarioType := range store.ScenarioTypes() {
		if _, ok := byType[scenarioType]; !ok {
			missing = append(missing, scenarioType)
		}
	}
	return missing
}

func joinTypes(types []store.ScenarioType) string {
	names := make([]string, 0, len(types))
	for _, scenarioType := range types {
		names = append(names, string(scenarioType))
	}
	return strings.Join(names, ", ")
}

// normalizeTags strips @ prefixes and guarantees the scenario-type tag is
// present.
func normalizeTags(tags []string, scenarioType store.ScenarioType) []string {
	out := make([]string, 0, len(tags)+1)
	seen := make(map[string]bool, len(tags)+1)
	for _, tag := range tags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "@")
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if !seen[string(scenarioType)] {
		out = append(out, string(scenarioType))
	}
	return out
}
