package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"flowmind/internal/config"
	"flowmind/internal/extract"
	"flowmind/internal/logging"
	"flowmind/internal/review"
	"flowmind/internal/services"
	"flowmind/internal/store"
	"flowmind/internal/syncer"
	"flowmind/internal/testgen"
	"flowmind/internal/transcript"
)

// Outcome classifies how a run ended.
type Outcome string

const (
	OutcomeFull    Outcome = "full"
	OutcomePartial Outcome = "partial"
	OutcomeEmpty   Outcome = "empty"
)

// Filter drops small-talk lines before extraction.
type Filter interface {
	Apply(ctx context.Context, lines []string) (transcript.Result, error)
}

// Extractor turns transcript lines into requirements.
type Extractor interface {
	Run(ctx context.Context, lines []string, startSeq int, systemPreamble string) (extract.Result, error)
}

// Reviewer deduplicates requirements in staged mode.
type Reviewer interface {
	Run(requirements []store.Requirement) review.Result
}

// Generator produces the BDD scenarios for one requirement.
type Generator interface {
	Generate(ctx context.Context, req store.Requirement, systemPreamble string) (testgen.Result, error)
}

// SyncRunner pushes persisted items to the tracker after a run.
type SyncRunner interface {
	Run(ctx context.Context) (syncer.Report, error)
}

// Components are the stage implementations a Runner drives. Syncer may be
// nil when tracker sync is disabled.
type Components struct {
	Filter    Filter
	Extractor Extractor
	Reviewer  Reviewer
	Generator Generator
	Syncer    SyncRunner
}

// Runner executes the full pipeline sequence for one transcript.
type Runner struct {
	cfg    *config.Config
	st     *store.Store
	parts  Components
	logger *slog.Logger
}

// NewRunner builds a pipeline runner.
func NewRunner(cfg *config.Config, st *store.Store, parts Components, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{cfg: cfg, st: st, parts: parts, logger: logger}
}

// Summary reports what one run produced.
type Summary struct {
	SessionID      string            `json:"session_id"`
	Outcome        Outcome           `json:"outcome"`
	Filtering      store.FilterStats `json:"filtering"`
	Requirements   int               `json:"requirements"`
	Duplicates     int               `json:"duplicates_dropped"`
	TestCases      int               `json:"test_cases"`
	Shortfall      int               `json:"test_case_shortfall"`
	FailedChunks   int               `json:"failed_chunks"`
	FailedTestGens int               `json:"failed_test_generations"`
	Sync           *syncer.Report    `json:"sync,omitempty"`
	Duration       time.Duration     `json:"duration"`
}

// Run executes the pipeline for the transcript at path. Concurrent runs are
// rejected via the lock file; the approval UI shares the store safely
// through per-operation transactions.
func (r *Runner) Run(ctx context.Context, transcriptPath string) (Summary, error) {
	start := time.Now()
	summary := Summary{Outcome: OutcomeFull}

	if err := r.cfg.EnsureDirectories(); err != nil {
		return summary, err
	}
	lock := flock.New(r.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return summary, services.Wrap(services.ErrPersistence, "pipeline", "lock", r.cfg.LockPath(), err)
	}
	if !locked {
		return summary, services.Wrap(services.ErrValidation, "pipeline", "lock",
			"another pipeline run is already in progress", nil)
	}
	defer func() { _ = lock.Unlock() }()

	sessionID := uuid.NewString()
	summary.SessionID = sessionID
	projectID := r.cfg.Pipeline.ProjectID
	if err := r.st.EnsureSession(ctx, sessionID, projectID); err != nil {
		return summary, err
	}
	r.record(ctx, sessionID, "run_start", map[string]any{"transcript": transcriptPath})

	lines, err := transcript.ReadLines(transcriptPath)
	if errors.Is(err, services.ErrEmptyTranscript) {
		return r.finishEmpty(ctx, summary, transcriptPath, start)
	}
	if err != nil {
		return summary, err
	}

	filtered, err := r.filterLines(ctx, lines)
	if err != nil {
		return summary, err
	}
	summary.Filtering = filtered.Stats
	r.record(ctx, sessionID, "ingest_done", map[string]any{
		"file":    filepath.Base(transcriptPath),
		"total":   filtered.Stats.Total,
		"kept":    filtered.Stats.Kept,
		"dropped": filtered.Stats.Dropped,
	})
	r.summarize(ctx, sessionID, fmt.Sprintf("Ingested %s: kept %d/%d lines; dropped %d small-talk.",
		filepath.Base(transcriptPath), filtered.Stats.Kept, filtered.Stats.Total, filtered.Stats.Dropped))

	if len(filtered.Kept) == 0 {
		return r.finishEmpty(ctx, summary, transcriptPath, start)
	}

	preamble := hydratePreamble(ctx, r.st, projectID, sessionID)

	startSeq, err := r.st.NextRequirementSeq(ctx)
	if err != nil {
		return summary, err
	}
	extracted, err := r.parts.Extractor.Run(ctx, filtered.Kept, startSeq, preamble)
	if err != nil {
		return summary, err
	}
	summary.FailedChunks = extracted.FailedChunks
	requirements := extracted.Requirements
	r.record(ctx, sessionID, "requirements_done", map[string]any{
		"count":         len(requirements),
		"failed_chunks": extracted.FailedChunks,
	})
	r.summarize(ctx, sessionID, fmt.Sprintf("Extracted %d business requirements from transcript.", len(requirements)))

	if r.cfg.Pipeline.Mode == config.ModeStaged && r.parts.Reviewer != nil {
		reviewed := r.parts.Reviewer.Run(requirements)
		summary.Duplicates = len(reviewed.DroppedIDs)
		requirements = reviewed.Requirements
		r.record(ctx, sessionID, "review_done", map[string]any{
			"kept":    len(requirements),
			"dropped": len(reviewed.DroppedIDs),
		})
		if summary.Duplicates > 0 {
			r.summarize(ctx, sessionID, fmt.Sprintf("Reviewed requirements; deduplicated to %d items.", len(requirements)))
		}
	}

	var cases []store.TestCase
	for _, req := range requirements {
		generated, err := r.parts.Generator.Generate(ctx, req, preamble)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			r.logger.Error("test generation failed for requirement",
				logging.String("id", req.ID),
				logging.Error(err))
			summary.FailedTestGens++
			continue
		}
		summary.Shortfall += generated.Shortfall
		cases = append(cases, generated.Cases...)
	}
	r.record(ctx, sessionID, "tests_done", map[string]any{
		"count":     len(cases),
		"shortfall": summary.Shortfall,
	})
	r.summarize(ctx, sessionID, fmt.Sprintf("Generated %d BDD test cases from %d requirements.", len(cases), len(requirements)))

	if err := r.st.Save(ctx, requirements, cases, filtered.Stats); err != nil {
		return summary, err
	}
	summary.Requirements = len(requirements)
	summary.TestCases = len(cases)
	r.record(ctx, sessionID, "persist_done", map[string]any{
		"requirements": len(requirements),
		"test_cases":   len(cases),
	})

	if r.cfg.Pipeline.SyncOnRun && r.parts.Syncer != nil {
		report, err := r.parts.Syncer.Run(ctx)
		if err != nil {
			return summary, err
		}
		summary.Sync = &report
		r.record(ctx, sessionID, "sync_done", map[string]any{
			"stories": report.Stories,
			"tasks":   report.Tasks,
			"skipped": report.Skipped,
			"failed":  report.Failed,
		})
	}

	if summary.FailedChunks > 0 || summary.Shortfall > 0 || summary.FailedTestGens > 0 ||
		(summary.Sync != nil && summary.Sync.Failed > 0) {
		summary.Outcome = OutcomePartial
	}
	summary.Duration = time.Since(start)
	r.record(ctx, sessionID, "run_done", map[string]any{
		"outcome":      string(summary.Outcome),
		"requirements": summary.Requirements,
		"test_cases":   summary.TestCases,
		"duration_sec": summary.Duration.Round(10 * time.Millisecond).Seconds(),
	})
	return summary, nil
}

// filterLines applies the small-talk filter when enabled; otherwise every
// line is kept and stats still report the totals.
func (r *Runner) filterLines(ctx context.Context, lines []string) (transcript.Result, error) {
	if !r.cfg.SmallTalk.Filter || r.parts.Filter == nil {
		return transcript.Result{
			Kept:  lines,
			Stats: store.FilterStats{Total: len(lines), Kept: len(lines)},
		}, nil
	}
	return r.parts.Filter.Apply(ctx, lines)
}

// finishEmpty persists an empty artifact so downstream consumers see a
// consistent document even when nothing substantive was said.
func (r *Runner) finishEmpty(ctx context.Context, summary Summary, transcriptPath string, start time.Time) (Summary, error) {
	summary.Outcome = OutcomeEmpty
	if err := r.st.Save(ctx, nil, nil, summary.Filtering); err != nil {
		return summary, err
	}
	r.record(ctx, summary.SessionID, "run_done", map[string]any{
		"outcome":    string(OutcomeEmpty),
		"transcript": filepath.Base(transcriptPath),
	})
	r.summarize(ctx, summary.SessionID, fmt.Sprintf("No substantive content in %s; nothing extracted.", filepath.Base(transcriptPath)))
	summary.Duration = time.Since(start)
	return summary, nil
}

func (r *Runner) record(ctx context.Context, sessionID, action string, payload map[string]any) {
	if err := r.st.RecordAction(ctx, sessionID, action, payload); err != nil {
		r.logger.Warn("failed to record action",
			logging.String("action", action),
			logging.Error(err))
	}
}

func (r *Runner) summarize(ctx context.Context, sessionID, bullet string) {
	if err := r.st.AppendSummary(ctx, sessionID, bullet); err != nil {
		r.logger.Warn("failed to append session summary", logging.Error(err))
	}
}
