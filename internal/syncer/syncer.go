package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"flowmind/internal/config"
	"flowmind/internal/logging"
	"flowmind/internal/services"
	"flowmind/internal/store"
	"flowmind/internal/tracker"
)

// TrackerClient is the slice of the tracker client the syncer needs.
type TrackerClient interface {
	UpsertIssue(ctx context.Context, req tracker.UpsertRequest) (key string, created bool, err error)
	LinkIssues(ctx context.Context, inwardKey, outwardKey string) error
}

// Syncer reconciles the local store against the remote tracker.
type Syncer struct {
	st     *store.Store
	client TrackerClient
	cfg    config.Tracker
	logger *slog.Logger
}

// New builds a syncer.
func New(st *store.Store, client TrackerClient, cfg config.Tracker, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Syncer{st: st, client: client, cfg: cfg, logger: logger}
}

// Report counts the outcome of one sync run.
type Report struct {
	Stories int `json:"stories"`
	Tasks   int `json:"tasks"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Links   int `json:"links"`
}

// Run syncs requirements (and their test cases) to the tracker. With
// ApprovedOnly set, drafts stay local. Unchanged items are skipped via the
// recorded sync hash; failures are logged and counted but do not stop the
// batch.
func (s *Syncer) Run(ctx context.Context) (Report, error) {
	var report Report

	requirements, err := s.loadScope(ctx)
	if err != nil {
		return report, err
	}
	for _, req := range requirements {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		storyKey := s.syncRequirement(ctx, req, &report)
		cases, err := s.st.TestCasesFor(ctx, req.ID)
		if err != nil {
			return report, err
		}
		for _, tc := range cases {
			s.syncTestCase(ctx, tc, storyKey, &report)
		}
	}
	return report, nil
}

func (s *Syncer) loadScope(ctx context.Context) ([]store.Requirement, error) {
	if s.cfg.ApprovedOnly {
		return s.st.LoadApproved(ctx)
	}
	return s.st.LoadAll(ctx)
}

// syncRequirement pushes one Story and returns its remote key ("" when the
// push failed), for linking its Tasks.
func (s *Syncer) syncRequirement(ctx context.Context, req store.Requirement, report *Report) string {
	link, err := s.st.GetRemoteLink(ctx, req.ID, "")
	if err != nil {
		s.fail(report, req.ID, "load remote link", err)
		return ""
	}
	existingKey := ""
	if link != nil {
		existingKey = link.RemoteKey
		if link.SyncedHash == req.ContentHash {
			s.logger.Debug("requirement unchanged since last sync",
				logging.String("id", req.ID),
				logging.String("key", existingKey))
			report.Skipped++
			return existingKey
		}
	}

	key, created, err := s.client.UpsertIssue(ctx, tracker.UpsertRequest{
		Label:       tracker.RequirementLabel(req.ID),
		Summary:     tracker.StorySummary(req),
		Description: tracker.StoryDescription(req),
		IssueType:   "Story",
		ExistingKey: existingKey,
	})
	if err != nil {
		s.fail(report, req.ID, "upsert story", err)
		return ""
	}
	if err := s.st.PutRemoteLink(ctx, store.RemoteLink{
		RequirementID: req.ID,
		RemoteKey:     key,
		SyncedHash:    req.ContentHash,
	}); err != nil {
		s.fail(report, req.ID, "record remote link", err)
		return key
	}
	report.Stories++
	s.logger.Info("synced requirement",
		logging.String("id", req.ID),
		logging.String("key", key),
		logging.Bool("created", created))
	return key
}

func (s *Syncer) syncTestCase(ctx context.Context, tc store.TestCase, storyKey string, report *Report) {
	link, err := s.st.GetRemoteLink(ctx, tc.RequirementID, tc.ScenarioType)
	if err != nil {
		s.fail(report, tc.ID, "load remote link", err)
		return
	}
	existingKey := ""
	if link != nil {
		existingKey = link.RemoteKey
		if link.SyncedHash == tc.ContentHash {
			report.Skipped++
			return
		}
	}

	key, created, err := s.client.UpsertIssue(ctx, tracker.UpsertRequest{
		Label:       tracker.TestCaseLabel(tc.RequirementID, tc.ScenarioType),
		Summary:     tracker.TaskSummary(tc),
		Description: tracker.TaskDescription(tc),
		IssueType:   "Task",
		ExistingKey: existingKey,
	})
	if err != nil {
		s.fail(report, tc.ID, "upsert task", err)
		return
	}
	if err := s.st.PutRemoteLink(ctx, store.RemoteLink{
		RequirementID: tc.RequirementID,
		ScenarioType:  tc.ScenarioType,
		RemoteKey:     key,
		SyncedHash:    tc.ContentHash,
	}); err != nil {
		s.fail(report, tc.ID, "record remote link", err)
		return
	}
	report.Tasks++

	if s.cfg.CreateLinks && created && storyKey != "" {
		if err := s.client.LinkIssues(ctx, key, storyKey); err != nil {
			s.logger.Warn("failed to link task to story",
				logging.String("task", key),
				logging.String("story", storyKey),
				logging.Error(err))
		} else {
			report.Links++
		}
	}
}

func (s *Syncer) fail(report *Report, id, op string, err error) {
	report.Failed++
	wrapped := services.Wrap(services.ErrSync, "sync", op, fmt.Sprintf("item %s", id), err)
	s.logger.Error("sync item failed", logging.Error(wrapped))
}
