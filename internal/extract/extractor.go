package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"flowmind/internal/llm"
	"flowmind/internal/logging"
	"flowmind/internal/services"
	"flowmind/internal/store"
	"flowmind/internal/textutil"
)

const systemPrompt = `You are a senior business analyst. You extract clear, testable business requirements from meeting transcripts and respond with JSON only.`

const userPromptTemplate = `Extract 3-6 clear, testable business requirements from the transcript below.
Each requirement MUST include:
- title
- description
- acceptance_criteria: exactly 3 short bullets (Given/When/Then phrasing where possible)
- priority (High/Medium/Low)
- epic (string or empty)

Return a JSON object of the form {"requirements": [...]} and nothing else.

Transcript (noise-filtered):
%s`

// Completer is the slice of the LLM client the extractor needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Extractor drives requirement extraction over one or more transcript chunks.
type Extractor struct {
	client     Completer
	chunkChars int
	logger     *slog.Logger
}

// New builds an extractor. chunkChars bounds the transcript text sent per
// model call; zero disables chunking.
func New(client Completer, chunkChars int, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{client: client, chunkChars: chunkChars, logger: logger}
}

// Result reports extracted requirements plus how many chunks failed to parse
// after the repair pass. A run with some failed chunks is partial, not fatal.
type Result struct {
	Requirements []store.Requirement
	FailedChunks int
}

type rawRequirement struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	Priority           string   `json:"priority"`
	Epic               string   `json:"epic"`
}

// Run extracts requirements from the supplied lines. IDs are assigned in
// first-seen order across chunks starting at startSeq. systemPreamble, when
// non-empty, is prepended to the system prompt (memory-derived tone and
// format preferences).
func (e *Extractor) Run(ctx context.Context, lines []string, startSeq int, systemPreamble string) (Result, error) {
	var result Result
	if len(lines) == 0 {
		return result, nil
	}
	if startSeq < 1 {
		startSeq = 1
	}
	system := systemPrompt
	if preamble := strings.TrimSpace(systemPreamble); preamble != "" {
		system = preamble + "\n\n" + system
	}

	chunks := ChunkLines(lines, e.chunkChars)
	seq := startSeq
	for i, chunk := range chunks {
		raws, err := e.extractChunk(ctx, system, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			e.logger.Warn("requirement extraction failed for chunk",
				logging.Int("chunk", i+1),
				logging.Int("chunks", len(chunks)),
				logging.Error(err))
			result.FailedChunks++
			continue
		}
		for _, raw := range raws {
			req, ok := e.buildRequirement(raw, seq)
			if !ok {
				continue
			}
			result.Requirements = append(result.Requirements, req)
			seq++
		}
	}
	if result.FailedChunks == len(chunks) {
		return result, services.Wrap(services.ErrExtraction, "extract", "run",
			fmt.Sprintf("all %d transcript chunks failed extraction", len(chunks)), nil)
	}
	return result, nil
}

func (e *Extractor) extractChunk(ctx context.Context, system, chunk string) ([]rawRequirement, error) {
	content, err := e.client.CompleteJSON(ctx, system, fmt.Sprintf(userPromptTemplate, chunk))
	if err != nil {
		return nil, err
	}
	raws, err := decodeRequirements(content)
	if err != nil {
		return nil, services.Wrap(services.ErrExtraction, "extract", "decode",
			fmt.Sprintf("unparseable model payload: %s", llm.SummarizeSnippet(content)), err)
	}
	return raws, nil
}

// decodeRequirements accepts both the requested {"requirements": [...]}
// envelope and a bare array, which some models return despite instructions.
func decodeRequirements(content string) ([]rawRequirement, error) {
	var envelope struct {
		Requirements []rawRequirement `json:"requirements"`
	}
	if err := llm.DecodeJSON(content, &envelope); err == nil && envelope.Requirements != nil {
		return envelope.Requirements, nil
	}
	var list []rawRequirement
	if err := llm.DecodeJSON(content, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (e *Extractor) buildRequirement(raw rawRequirement, seq int) (store.Requirement, bool) {
	title := strings.TrimSpace(raw.Title)
	description := strings.TrimSpace(raw.Description)
	if title == "" && description == "" {
		return store.Requirement{}, false
	}
	if title == "" {
		title = llm.SummarizeSnippet(description)
	}
	id := fmt.Sprintf("REQ-%03d", seq)
	criteria, truncated := NormalizeCriteria(raw.AcceptanceCriteria)
	if truncated > 0 {
		e.logger.Warn("acceptance criteria truncated",
			logging.String("requirement", id),
			logging.Int("dropped", truncated))
	}
	req := store.Requirement{
		ID:                 id,
		Title:              title,
		Description:        description,
		AcceptanceCriteria: criteria,
		Priority:           NormalizePriority(raw.Priority),
		Epic:               strings.TrimSpace(raw.Epic),
		Status:             store.StatusDraft,
	}
	req.ContentHash = store.RequirementHash(req)
	return req, true
}

// NormalizeCriteria pads or trims a criteria list to the canonical count.
// Each criterion is collapsed onto a single line, matching the gherkin
// normalization, so storage and hashing stay stable. Returns the normalized
// list and how many entries were dropped.
func NormalizeCriteria(criteria []string) ([]string, int) {
	cleaned := make([]string, 0, store.CriteriaCount)
	for _, criterion := range criteria {
		criterion = textutil.CollapseWhitespace(criterion)
		if criterion != "" {
			cleaned = append(cleaned, criterion)
		}
	}
	truncated := 0
	if len(cleaned) > store.CriteriaCount {
		truncated = len(cleaned) - store.CriteriaCount
		cleaned = cleaned[:store.CriteriaCount]
	}
	for len(cleaned) < store.CriteriaCount {
		cleaned = append(cleaned, "TBD")
	}
	return cleaned, truncated
}

// NormalizePriority folds model output onto High/Medium/Low; anything else
// becomes empty.
func NormalizePriority(priority string) string {
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case "high":
		return "High"
	case "medium", "med":
		return "Medium"
	case "low":
		return "Low"
	default:
		return ""
	}
}
