package syncer_test

import (
	"context"
	"errors"
	"testing"

	"flowmind/internal/config"
	"flowmind/internal/store"
	"flowmind/internal/syncer"
	"flowmind/internal/testsupport"
	"flowmind/internal/tracker"
)

type fakeTracker struct {
	upserts   []tracker.UpsertRequest
	links     [][2]string
	nextKey   int
	failLabel string
}

func (f *fakeTracker) UpsertIssue(_ context.Context, req tracker.UpsertRequest) (string, bool, error) {
	f.upserts = append(f.upserts, req)
	if req.Label == f.failLabel {
		return "", false, errors.New("tracker 500")
	}
	if req.ExistingKey != "" {
		return req.ExistingKey, false, nil
	}
	f.nextKey++
	return key(f.nextKey), true, nil
}

func (f *fakeTracker) LinkIssues(_ context.Context, inward, outward string) error {
	f.links = append(f.links, [2]string{inward, outward})
	return nil
}

func key(n int) string {
	return "SCRUM-" + string(rune('0'+n))
}

func trackerConfig() config.Tracker {
	return config.Tracker{Enabled: true, ApprovedOnly: true, CreateLinks: true, ProjectKey: "SCRUM"}
}

func seedApproved(t *testing.T, st *store.Store) (store.Requirement, []store.TestCase) {
	t.Helper()
	ctx := context.Background()
	req := testsupport.SampleRequirement(1)
	req.ContentHash = store.RequirementHash(req)
	cases := testsupport.SampleTestCases(req.ID)
	for i := range cases {
		cases[i].ContentHash = store.TestCaseHash(cases[i])
	}
	if err := st.Save(ctx, []store.Requirement{req}, cases, store.FilterStats{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := st.Approve(ctx, req.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	return req, cases
}

func TestRunCreatesStoryAndTasks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedApproved(t, st)

	remote := &fakeTracker{}
	s := syncer.New(st, remote, trackerConfig(), nil)

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Stories != 1 || report.Tasks != 3 || report.Failed != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(remote.upserts) != 4 {
		t.Fatalf("expected 4 upserts, got %d", len(remote.upserts))
	}
	if remote.upserts[0].IssueType != "Story" || remote.upserts[1].IssueType != "Task" {
		t.Fatalf("unexpected issue types: %+v", remote.upserts)
	}
	if report.Links != 3 {
		t.Fatalf("expected a link per created task, got %d", report.Links)
	}
	for _, link := range remote.links {
		if link[1] != remote.upserts[0].Label && link[1] == "" {
			t.Fatalf("task must link to story, got %v", link)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedApproved(t, st)

	remote := &fakeTracker{}
	s := syncer.New(st, remote, trackerConfig(), nil)

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	firstCalls := len(remote.upserts)

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if len(remote.upserts) != firstCalls {
		t.Fatalf("unchanged content must not hit the tracker again: %d calls", len(remote.upserts))
	}
	if report.Skipped != 4 || report.Stories != 0 || report.Tasks != 0 {
		t.Fatalf("unexpected second report %+v", report)
	}
}

func TestRunResyncsChangedRequirement(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	req, cases := seedApproved(t, st)

	remote := &fakeTracker{}
	s := syncer.New(st, remote, trackerConfig(), nil)
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	req.Description = "Updated description."
	req.ContentHash = store.RequirementHash(req)
	if err := st.Save(context.Background(), []store.Requirement{req}, cases, store.FilterStats{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	before := len(remote.upserts)
	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if report.Stories != 1 || report.Skipped != 3 {
		t.Fatalf("expected only the story to resync, got %+v", report)
	}
	resync := remote.upserts[before]
	if resync.ExistingKey == "" {
		t.Fatal("resync must reuse the recorded remote key")
	}
}

func TestRunToleratesItemFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedApproved(t, st)

	remote := &fakeTracker{failLabel: "tc-req-001-negative"}
	s := syncer.New(st, remote, trackerConfig(), nil)

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run must not abort on one failed item: %v", err)
	}
	if report.Failed != 1 || report.Tasks != 2 || report.Stories != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestRunApprovedOnlySkipsDrafts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	req := testsupport.SampleRequirement(1)
	if err := st.Save(ctx, []store.Requirement{req}, nil, store.FilterStats{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	remote := &fakeTracker{}
	s := syncer.New(st, remote, trackerConfig(), nil)

	report, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(remote.upserts) != 0 || report.Stories != 0 {
		t.Fatalf("draft must stay local with approved-only, got %+v", report)
	}
}
